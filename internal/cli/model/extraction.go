package model

// ExtractionResult — структурированный ответ сервиса распознавания визитки.
type ExtractionResult struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Country  string `json:"country"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Address  string `json:"address"`
	Note     string `json:"note"`
	Rotation int    `json:"rotation"` // градусы по часовой стрелке, 0 — изображение ровное
}

// ApplyTo переносит распознанные поля в визитку. Пустые значения не затирают уже заполненные.
func (r ExtractionResult) ApplyTo(c *Card) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Name, r.Name)
	set(&c.Title, r.Title)
	set(&c.Company, r.Company)
	set(&c.Country, r.Country)
	set(&c.Email, r.Email)
	set(&c.Phone, r.Phone)
	set(&c.Website, r.Website)
	set(&c.Address, r.Address)
	set(&c.Note, r.Note)
}
