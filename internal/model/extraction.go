package model

// Extraction — поля, распознанные моделью на фото визитки.
type Extraction struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Company  string `json:"company"`
	Country  string `json:"country"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Website  string `json:"website"`
	Address  string `json:"address"`
	Note     string `json:"note"`
	Rotation int    `json:"rotation"` // по часовой стрелке, градусы
}
