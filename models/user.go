package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/garage_backend/config"
	"bitbucket.org/mmdatafocus/garage_backend/utils"
	"gorm.io/gorm"
)

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     string    `gorm:"size:255;default:null" json:"email"`
	Phone     string    `gorm:"size:100;default:null" json:"phone"`
	Role      UserRole  `gorm:"type:enum('admin','manager','technician','cashier');not null;default:technician" json:"role"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Username string   `json:"username" binding:"required"`
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Role     UserRole `json:"role"`
	Password string   `json:"password"`
	IsActive *bool    `json:"is_active"`
}

func (input *NewUser) validate(ctx context.Context, id int) error {
	if input.Email != "" && !utils.IsValidEmail(input.Email) {
		return errors.New("email is invalid")
	}
	if id == 0 && len(input.Password) < 6 {
		return errors.New("password must have at least 6 characters")
	}
	return utils.ValidateUnique[User](ctx, "username", input.Username, id)
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	db := config.GetDB()

	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = UserRoleTechnician
	}

	user := User{
		Username: input.Username,
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Role:     role,
		Password: string(hashed),
		IsActive: input.IsActive,
	}
	if user.IsActive == nil {
		user.IsActive = utils.NewTrue()
	}

	if err := db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func UpdateUser(ctx context.Context, id int, input *NewUser) (*User, error) {
	db := config.GetDB()

	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"Username": input.Username,
		"Name":     input.Name,
		"Email":    input.Email,
		"Phone":    input.Phone,
	}
	if input.Role != "" {
		updates["Role"] = input.Role
	}
	if err := db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func GetUser(ctx context.Context, id int) (*User, error) {
	return utils.FetchModel[User](ctx, id)
}

func ListUsers(ctx context.Context, searchText string, page int, pageSize int) ([]*User, *PageInfo, error) {
	db := config.GetDB()

	dbCtx := db.WithContext(ctx).Model(&User{})
	if search := strings.TrimSpace(searchText); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		dbCtx = dbCtx.Where(
			"LOWER(name) LIKE ? OR LOWER(username) LIKE ? OR LOWER(role) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var totalCount int64
	if err := dbCtx.Count(&totalCount).Error; err != nil {
		return nil, nil, err
	}

	var users []*User
	err := dbCtx.Order("name").Scopes(Paginate(page, pageSize)).Find(&users).Error
	if err != nil {
		return nil, nil, err
	}
	return users, NewPageInfo(page, pageSize, totalCount), nil
}

// ToggleUserActive flips a staff member between active and inactive.
func ToggleUserActive(ctx context.Context, id int, isActive bool) (*User, error) {
	db := config.GetDB()

	user, err := utils.FetchModel[User](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(user).
		UpdateColumn("IsActive", isActive).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a JWT for active users.
func Login(ctx context.Context, username string, password string) (string, *User, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, errors.New("invalid username or password")
	}
	if err != nil {
		return "", nil, err
	}
	if !utils.DereferencePtr(user.IsActive) {
		return "", nil, errors.New("account is inactive")
	}
	if err := utils.ComparePassword(user.Password, password); err != nil {
		return "", nil, errors.New("invalid username or password")
	}

	token, err := utils.JwtGenerate(user.ID, user.Username, string(user.Role))
	if err != nil {
		return "", nil, err
	}
	return token, &user, nil
}

// ChangePassword verifies the current password before replacing it.
func ChangePassword(ctx context.Context, userId int, currentPassword string, newPassword string) error {
	db := config.GetDB()

	if len(newPassword) < 6 {
		return errors.New("password must have at least 6 characters")
	}

	user, err := utils.FetchModel[User](ctx, userId)
	if err != nil {
		return err
	}
	if err := utils.ComparePassword(user.Password, currentPassword); err != nil {
		return errors.New("current password is incorrect")
	}

	hashed, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Model(user).
		UpdateColumn("Password", string(hashed)).Error
}
