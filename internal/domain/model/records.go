package model

// Записи, принадлежащие преподавателю: публикации, исследования, награды,
// консультации, контроль (nazorat). UserID — владелец.

// Типы публикаций.
const (
	PublicationArticle    = "ARTICLE"
	PublicationBook       = "BOOK"
	PublicationThesis     = "THESIS"
	PublicationTextbook   = "TEXTBOOK"
	PublicationMonography = "MONOGRAPH"
)

// Типы наград.
const (
	AwardState         = "STATE"
	AwardUniversity    = "UNIVERSITY"
	AwardInternational = "INTERNATIONAL"
)

// Publication — публикация.
type Publication struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// EntityID возвращает серверный id Publication.
func (p Publication) EntityID() int64 { return p.ID }

// PublicationCreate — создание публикации.
type PublicationCreate struct {
	Name        string `json:"name" validate:"required,max=500"`
	Type        string `json:"type" validate:"required,oneof=ARTICLE BOOK THESIS TEXTBOOK MONOGRAPH"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// SetAssetURL подставляет URL загруженного файла в PublicationCreate.
func (c *PublicationCreate) SetAssetURL(url string) { c.FileURL = url }

// OwnerID возвращает id преподавателя-владельца PublicationCreate.
func (c *PublicationCreate) OwnerID() int64 { return c.UserID }

// SetOwnerID задаёт id преподавателя-владельца PublicationCreate.
func (c *PublicationCreate) SetOwnerID(id int64) { c.UserID = id }

// PublicationPatch — изменение публикации.
type PublicationPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=500"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=ARTICLE BOOK THESIS TEXTBOOK MONOGRAPH"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Description *string `json:"description,omitempty"`
	FileURL     *string `json:"fileUrl,omitempty"`
}

// SetAssetURL подставляет URL загруженного файла в PublicationPatch.
func (p *PublicationPatch) SetAssetURL(url string) { p.FileURL = &url }

// Research — научное исследование.
type Research struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// EntityID возвращает серверный id Research.
func (r Research) EntityID() int64 { return r.ID }

// ResearchCreate — создание исследования.
type ResearchCreate struct {
	Name        string `json:"name" validate:"required,max=500"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// SetAssetURL подставляет URL загруженного файла в ResearchCreate.
func (c *ResearchCreate) SetAssetURL(url string) { c.FileURL = url }

// OwnerID возвращает id преподавателя-владельца ResearchCreate.
func (c *ResearchCreate) OwnerID() int64 { return c.UserID }

// SetOwnerID задаёт id преподавателя-владельца ResearchCreate.
func (c *ResearchCreate) SetOwnerID(id int64) { c.UserID = id }

// ResearchPatch — изменение исследования.
type ResearchPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=500"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Description *string `json:"description,omitempty"`
	FileURL     *string `json:"fileUrl,omitempty"`
}

// SetAssetURL подставляет URL загруженного файла в ResearchPatch.
func (p *ResearchPatch) SetAssetURL(url string) { p.FileURL = &url }

// Award — награда.
type Award struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Year        int    `json:"year"`
	Description string `json:"description"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// EntityID возвращает серверный id Award.
func (a Award) EntityID() int64 { return a.ID }

// AwardCreate — создание награды.
type AwardCreate struct {
	Name        string `json:"name" validate:"required,max=500"`
	Type        string `json:"type" validate:"required,oneof=STATE UNIVERSITY INTERNATIONAL"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
	Description string `json:"description,omitempty"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// SetAssetURL подставляет URL загруженного файла в AwardCreate.
func (c *AwardCreate) SetAssetURL(url string) { c.FileURL = url }

// OwnerID возвращает id преподавателя-владельца AwardCreate.
func (c *AwardCreate) OwnerID() int64 { return c.UserID }

// SetOwnerID задаёт id преподавателя-владельца AwardCreate.
func (c *AwardCreate) SetOwnerID(id int64) { c.UserID = id }

// AwardPatch — изменение награды.
type AwardPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=500"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=STATE UNIVERSITY INTERNATIONAL"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	Description *string `json:"description,omitempty"`
	FileURL     *string `json:"fileUrl,omitempty"`
}

// SetAssetURL подставляет URL загруженного файла в AwardPatch.
func (p *AwardPatch) SetAssetURL(url string) { p.FileURL = &url }

// Consultation — консультация (maslahat) для студентов.
type Consultation struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"`
	Location    string `json:"location"`
	UserID      int64  `json:"userId"`
}

// EntityID возвращает серверный id Consultation.
func (c Consultation) EntityID() int64 { return c.ID }

// ConsultationCreate — создание консультации.
type ConsultationCreate struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty"`
	Schedule    string `json:"schedule" validate:"required"`
	Location    string `json:"location,omitempty"`
	UserID      int64  `json:"userId"`
}

// OwnerID возвращает id преподавателя-владельца ConsultationCreate.
func (c *ConsultationCreate) OwnerID() int64 { return c.UserID }

// SetOwnerID задаёт id преподавателя-владельца ConsultationCreate.
func (c *ConsultationCreate) SetOwnerID(id int64) { c.UserID = id }

// ConsultationPatch — изменение консультации.
type ConsultationPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description,omitempty"`
	Schedule    *string `json:"schedule,omitempty" validate:"omitempty,min=1"`
	Location    *string `json:"location,omitempty"`
}

// ControlRecord — запись контроля (nazorat).
type ControlRecord struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// EntityID возвращает серверный id ControlRecord.
func (c ControlRecord) EntityID() int64 { return c.ID }

// ControlRecordCreate — создание записи контроля.
type ControlRecordCreate struct {
	Name        string `json:"name" validate:"required,max=500"`
	Description string `json:"description,omitempty"`
	Year        int    `json:"year" validate:"required,gte=1900,lte=2100"`
	FileURL     string `json:"fileUrl"`
	UserID      int64  `json:"userId"`
}

// SetAssetURL подставляет URL загруженного файла в ControlRecordCreate.
func (c *ControlRecordCreate) SetAssetURL(url string) { c.FileURL = url }

// OwnerID возвращает id преподавателя-владельца ControlRecordCreate.
func (c *ControlRecordCreate) OwnerID() int64 { return c.UserID }

// SetOwnerID задаёт id преподавателя-владельца ControlRecordCreate.
func (c *ControlRecordCreate) SetOwnerID(id int64) { c.UserID = id }

// ControlRecordPatch — изменение записи контроля.
type ControlRecordPatch struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=500"`
	Description *string `json:"description,omitempty"`
	Year        *int    `json:"year,omitempty" validate:"omitempty,gte=1900,lte=2100"`
	FileURL     *string `json:"fileUrl,omitempty"`
}

// SetAssetURL подставляет URL загруженного файла в ControlRecordPatch.
func (p *ControlRecordPatch) SetAssetURL(url string) { p.FileURL = &url }
