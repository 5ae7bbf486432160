package pkg

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxPhotoSize = 5 * 1024 * 1024
	MaxVideoSize = 50 * 1024 * 1024
)

var (
	photoExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}
	videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".webm": true}
)

// FileStorage 本地磁盘存储上传文件，返回可通过 /uploads/ 访问的引用
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

// Remove 删除 save 返回的引用对应的文件，文件不存在不报错
func (s *FileStorage) Remove(ref string) error {
	rel, ok := strings.CutPrefix(ref, "/uploads/")
	if !ok || rel == "" || strings.Contains(rel, "..") {
		return fmt.Errorf("%w: invalid upload reference %q", ErrValidation, ref)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(rel)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *FileStorage) SavePhoto(dir string, fh *multipart.FileHeader) (string, error) {
	return s.save(dir, fh, photoExtensions, MaxPhotoSize)
}

func (s *FileStorage) SaveVideo(dir string, fh *multipart.FileHeader) (string, error) {
	return s.save(dir, fh, videoExtensions, MaxVideoSize)
}

func (s *FileStorage) save(dir string, fh *multipart.FileHeader, allowed map[string]bool, maxSize int64) (string, error) {
	if fh.Size > maxSize {
		return "", fmt.Errorf("%w: file %s exceeds %d MB", ErrValidation, fh.Filename, maxSize/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !allowed[ext] {
		return "", fmt.Errorf("%w: file %s has an unsupported format", ErrValidation, fh.Filename)
	}

	target := filepath.Join(s.root, dir)
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	name := uuid.NewString() + ext
	full := filepath.Join(target, name)
	dst, err := os.Create(full)
	if err != nil {
		return "", err
	}

	// 写入或关闭失败都不留下半个文件
	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(full)
		return "", err
	}
	return path.Join("/uploads", filepath.ToSlash(dir), name), nil
}
