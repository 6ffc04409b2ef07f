package service

import (
	"regexp"
	"sort"
	"strings"

	"BizCard/internal/cli/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Ungrouped — ключ группы для визиток с пустым значением поля.
const Ungrouped = "未分類"

// GroupBy — поле группировки списка.
type GroupBy string

const (
	GroupNone    GroupBy = ""
	GroupCompany GroupBy = "company"
	GroupTitle   GroupBy = "title"
	GroupCountry GroupBy = "country"
)

// ParseGroupBy разбирает значение флага --group.
func ParseGroupBy(s string) (GroupBy, bool) {
	switch g := GroupBy(strings.ToLower(strings.TrimSpace(s))); g {
	case GroupNone, GroupCompany, GroupTitle, GroupCountry:
		return g, true
	default:
		return GroupNone, false
	}
}

var (
	honorificPrefix = regexp.MustCompile(`(?i)^(?:Mr\.?|Ms\.?|Mrs\.?|Dr\.?)\s+`)
	honorificSuffix = regexp.MustCompile(`(?i)[ .]*(?:様|さん|殿|Mr\.?|Ms\.?|Mrs\.?|Dr\.?)$`)
)

// CleanQuery убирает обращения вроде "Mr." в начале и "様"/"さん" в конце запроса.
func CleanQuery(q string) string {
	q = honorificPrefix.ReplaceAllString(q, "")
	q = honorificSuffix.ReplaceAllString(q, "")
	return strings.TrimSpace(q)
}

// Search фильтрует визитки по подстроке без учёта регистра
// в имени, компании, должности, стране и тегах. Пустой запрос возвращает всё.
func Search(cards []model.Card, query string) []model.Card {
	q := strings.ToLower(CleanQuery(query))
	out := make([]model.Card, 0, len(cards))
	for _, c := range cards {
		if q == "" || matches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c model.Card, q string) bool {
	for _, f := range []string{c.Name, c.Company, c.Title, c.Country} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	for _, t := range c.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// Group — группа визиток с общим значением поля.
type Group struct {
	Key   string
	Cards []model.Card
}

// GroupCards группирует визитки по полю. Ключи упорядочены по японской сортировке,
// Ungrouped всегда последний. Порядок визиток внутри группы сохраняется.
func GroupCards(cards []model.Card, by GroupBy) []Group {
	if by == GroupNone {
		return []Group{{Key: "", Cards: cards}}
	}
	idx := make(map[string]int)
	var groups []Group
	for _, c := range cards {
		key := groupKey(c, by)
		i, ok := idx[key]
		if !ok {
			i = len(groups)
			idx[key] = i
			groups = append(groups, Group{Key: key})
		}
		groups[i].Cards = append(groups[i].Cards, c)
	}

	col := collate.New(language.Japanese)
	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].Key, groups[j].Key
		if a == Ungrouped || b == Ungrouped {
			return b == Ungrouped && a != Ungrouped
		}
		return col.CompareString(a, b) < 0
	})
	return groups
}

func groupKey(c model.Card, by GroupBy) string {
	var key string
	switch by {
	case GroupCompany:
		key = c.Company
	case GroupTitle:
		key = c.Title
	case GroupCountry:
		key = c.Country
	}
	if key == "" {
		return Ungrouped
	}
	return key
}

// Search ищет по текущей коллекции.
func (s *CardService) Search(query string) []model.Card {
	return Search(s.state.Snapshot(), query)
}

// Group группирует текущую коллекцию.
func (s *CardService) Group(by GroupBy) []Group {
	return GroupCards(s.state.Snapshot(), by)
}
