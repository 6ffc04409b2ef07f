package view

import (
	"strings"
	"time"

	"BizCard/internal/cli/model"
)

// CardView — DTO для отображения визитки в CLI.
type CardView struct {
	ID        string
	Name      string
	Title     string
	Company   string
	Country   string
	Email     string
	Phone     string
	Website   string
	Address   string
	Note      string
	Tags      string
	Image     string // "<not set>" или размер картинки
	CreatedAt string
}

const notSet = "<not set>"

// FromCard готовит визитку к выводу: пустые поля помечаются, время форматируется в loc.
func FromCard(c model.Card, loc *time.Location) CardView {
	if loc == nil {
		loc = time.Local
	}
	orNotSet := func(s string) string {
		if s == "" {
			return notSet
		}
		return s
	}
	v := CardView{
		ID:        c.ID,
		Name:      orNotSet(c.Name),
		Title:     orNotSet(c.Title),
		Company:   orNotSet(c.Company),
		Country:   orNotSet(c.Country),
		Email:     orNotSet(c.Email),
		Phone:     orNotSet(c.Phone),
		Website:   orNotSet(c.Website),
		Address:   orNotSet(c.Address),
		Note:      orNotSet(c.Note),
		Tags:      orNotSet(strings.Join(c.Tags, ", ")),
		Image:     notSet,
		CreatedAt: time.UnixMilli(c.CreatedAt).In(loc).Format("2006/01/02 15:04:05"),
	}
	if c.HasImage() {
		v.Image = humanSize(len(*c.ImageURI))
	}
	return v
}

// Line — краткая строка для списков.
func (v CardView) Line() string {
	var b strings.Builder
	b.WriteString("- ")
	b.WriteString(v.ID)
	b.WriteString("  ")
	b.WriteString(v.Name)
	if v.Company != notSet {
		b.WriteString(" / ")
		b.WriteString(v.Company)
	}
	if v.Title != notSet {
		b.WriteString(" (")
		b.WriteString(v.Title)
		b.WriteString(")")
	}
	if v.Tags != notSet {
		b.WriteString("  [")
		b.WriteString(v.Tags)
		b.WriteString("]")
	}
	return b.String()
}
