package model

// Teacher — профиль преподавателя (пользователь API).
type Teacher struct {
	ID           int64  `json:"id"`
	FullName     string `json:"fullName"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	ImgURL       string `json:"imgUrl"`
	Biography    string `json:"biography"`
	Role         string `json:"role"`
	DepartmentID int64  `json:"departmentId"`
	PositionID   int64  `json:"positionId"`
}

// EntityID возвращает серверный id Teacher.
func (t Teacher) EntityID() int64 { return t.ID }

// DisplayName возвращает отображаемое имя Teacher.
func (t Teacher) DisplayName() string { return t.FullName }

// ParentID возвращает id родительской записи Teacher.
func (t Teacher) ParentID() int64 { return t.DepartmentID }

// TeacherCreate — регистрация преподавателя администратором.
type TeacherCreate struct {
	FullName     string `json:"fullName" validate:"required,max=255"`
	Phone        string `json:"phone" validate:"required,e164"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	Password     string `json:"password" validate:"required,min=6"`
	ImgURL       string `json:"imgUrl"`
	Biography    string `json:"biography,omitempty"`
	DepartmentID int64  `json:"departmentId" validate:"required,gt=0"`
	PositionID   int64  `json:"positionId" validate:"required,gt=0"`
}

// SetAssetURL подставляет URL загруженного файла в TeacherCreate.
func (c *TeacherCreate) SetAssetURL(url string) { c.ImgURL = url }

// TeacherPatch — изменение профиля.
type TeacherPatch struct {
	FullName     *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=255"`
	Phone        *string `json:"phone,omitempty" validate:"omitempty,e164"`
	Email        *string `json:"email,omitempty" validate:"omitempty,email"`
	ImgURL       *string `json:"imgUrl,omitempty"`
	Biography    *string `json:"biography,omitempty"`
	DepartmentID *int64  `json:"departmentId,omitempty" validate:"omitempty,gt=0"`
	PositionID   *int64  `json:"positionId,omitempty" validate:"omitempty,gt=0"`
}

// SetAssetURL подставляет URL загруженного файла в TeacherPatch.
func (p *TeacherPatch) SetAssetURL(url string) { p.ImgURL = &url }
