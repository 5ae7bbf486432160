// Command create-admin 直接在库里创建一个已审批的社区管理员，用于首次部署。
//
//	create-admin -username admin -email admin@example.com -password '...'
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"Community_Portal/internal/config"
	"Community_Portal/internal/model"
	"Community_Portal/internal/pkg"
	"Community_Portal/internal/repository/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	username := flag.String("username", "", "admin username")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	firstName := flag.String("first-name", "", "first name")
	lastName := flag.String("last-name", "", "last name")
	flag.Parse()

	log := pkg.NewLogger("info")
	if *username == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	db, err := database.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Error("open database failed", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	if err := database.Migrate(db); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	user, err := createAdmin(db, *username, *email, *password, *firstName, *lastName)
	if err != nil {
		log.Error("create admin failed", "error", err)
		os.Exit(1)
	}
	fmt.Printf("approved admin %s created with id %d\n", user.Username, user.ID)
}

// createAdmin 已存在的同名账号直接提升为已审批管理员
func createAdmin(db *gorm.DB, username, email, password, firstName, lastName string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	var user model.User
	err = db.Where("username = ?", username).First(&user).Error
	switch {
	case err == nil:
		err = db.Model(&user).Updates(map[string]any{
			"role":        model.RoleAdmin,
			"is_approved": true,
			"password":    string(hash),
		}).Error
		return &user, err
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}

	user = model.User{
		Username:   username,
		Email:      email,
		Password:   string(hash),
		FirstName:  firstName,
		LastName:   lastName,
		Role:       model.RoleAdmin,
		IsApproved: true,
	}
	if err := db.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
