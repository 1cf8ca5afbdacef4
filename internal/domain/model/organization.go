package model

// Faculty — факультет (college).
type Faculty struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	ImgURL string `json:"imgUrl"`
}

// EntityID возвращает серверный id Faculty.
func (f Faculty) EntityID() int64 { return f.ID }

// DisplayName возвращает отображаемое имя Faculty.
func (f Faculty) DisplayName() string { return f.Name }

// FacultyCreate — создание факультета.
type FacultyCreate struct {
	Name   string `json:"name" validate:"required,max=255"`
	ImgURL string `json:"imgUrl"`
}

// SetAssetURL подставляет URL загруженного файла в FacultyCreate.
func (c *FacultyCreate) SetAssetURL(url string) { c.ImgURL = url }

// FacultyPatch — изменение факультета.
type FacultyPatch struct {
	Name   *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	ImgURL *string `json:"imgUrl,omitempty"`
}

// SetAssetURL подставляет URL загруженного файла в FacultyPatch.
func (p *FacultyPatch) SetAssetURL(url string) { p.ImgURL = &url }

// Department — кафедра. CollegeID — ссылка на факультет, целостность не гарантируется.
type Department struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ImgURL    string `json:"imgUrl"`
	CollegeID int64  `json:"collegeId"`
}

// EntityID возвращает серверный id Department.
func (d Department) EntityID() int64 { return d.ID }

// DisplayName возвращает отображаемое имя Department.
func (d Department) DisplayName() string { return d.Name }

// ParentID возвращает id родительской записи Department.
func (d Department) ParentID() int64 { return d.CollegeID }

// DepartmentCreate — создание кафедры.
type DepartmentCreate struct {
	Name      string `json:"name" validate:"required,max=255"`
	ImgURL    string `json:"imgUrl"`
	CollegeID int64  `json:"collegeId" validate:"gte=0"`
}

// SetAssetURL подставляет URL загруженного файла в DepartmentCreate.
func (c *DepartmentCreate) SetAssetURL(url string) { c.ImgURL = url }

// DepartmentPatch — изменение кафедры.
type DepartmentPatch struct {
	Name      *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	ImgURL    *string `json:"imgUrl,omitempty"`
	CollegeID *int64  `json:"collegeId,omitempty" validate:"omitempty,gte=0"`
}

// SetAssetURL подставляет URL загруженного файла в DepartmentPatch.
func (p *DepartmentPatch) SetAssetURL(url string) { p.ImgURL = &url }

// Position — должность.
type Position struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EntityID возвращает серверный id Position.
func (p Position) EntityID() int64 { return p.ID }

// DisplayName возвращает отображаемое имя Position.
func (p Position) DisplayName() string { return p.Name }

// PositionCreate — создание должности.
type PositionCreate struct {
	Name string `json:"name" validate:"required,max=255"`
}

// PositionPatch — изменение должности.
type PositionPatch struct {
	Name *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
}
