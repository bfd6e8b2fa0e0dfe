package layout

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/msalah0e/lombard/internal/force"
)

var yearPattern = regexp.MustCompile(`\b(\d{4})\b`)

// ParseDate reads free-text dates such as "1991-07-05", "March 2015" or
// "2008-2011". When the full text does not parse, the first four-digit year
// is used.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	year := 0
	if m := yearPattern.FindStringSubmatch(s); m != nil {
		year, _ = strconv.Atoi(m[1])
	}
	// dateparse can read a bare year as a clock time; trust the year in the text
	if t, err := dateparse.ParseIn(s, time.UTC); err == nil && (year == 0 || t.Year() == year) {
		return t, true
	}
	if year == 0 {
		return time.Time{}, false
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
}

type timelineLayout struct{}

func (timelineLayout) Name() Name { return Timeline }
func (timelineLayout) Kind() Kind { return Fixed }

const (
	timelineMainY     = 0.4
	timelineFallbackY = 0.75
)

func (l timelineLayout) Plan(in Input) (*Plan, error) {
	type dated struct {
		id   string
		when time.Time
		rank int
	}
	var withDate []dated
	var without []string
	for i, n := range in.Nodes {
		if t, ok := ParseDate(n.Date); ok {
			withDate = append(withDate, dated{id: n.ID, when: t, rank: i})
		} else {
			without = append(without, n.ID)
		}
	}
	if len(withDate) == 0 {
		return nil, &MissingDataError{Layout: Timeline, Attribute: "dates"}
	}

	sort.SliceStable(withDate, func(i, j int) bool {
		if !withDate[i].when.Equal(withDate[j].when) {
			return withDate[i].when.Before(withDate[j].when)
		}
		return withDate[i].rank < withDate[j].rank
	})

	p := newPlan(l, 0.3)
	p.add("link", force.NewLink(100).Strength(func(*force.Link) float64 { return 0.3 }))
	p.add("charge", force.NewManyBody(force.Constant(-100)))
	p.add("collide", force.NewCollide(force.Constant(30)))

	w, h := in.Canvas.Width, in.Canvas.Height
	mainY := h * timelineMainY
	lastYear := -1
	for i, d := range withDate {
		x := spread(i, len(withDate), w)
		p.Pins[d.id] = force.Point{X: x, Y: mainY}
		if y := d.when.Year(); y != lastYear {
			p.Axis = append(p.Axis, AxisTick{X: x, Label: strconv.Itoa(y)})
			lastYear = y
		}
	}

	for i, id := range without {
		p.Pins[id] = force.Point{X: spread(i, len(without), w), Y: h * timelineFallbackY}
	}
	return p, nil
}
