package thread

import "time"

// DefaultTimeLayout is used when no layout is configured.
const DefaultTimeLayout = "2006-01-02 15:04:05"

// Formatter turns server instants into display strings.
type Formatter struct {
	Layout   string
	Location *time.Location
}

// NewFormatter loads zone by IANA name. An empty zone means the local zone.
func NewFormatter(layout, zone string) (Formatter, error) {
	f := Formatter{Layout: layout, Location: time.Local}
	if f.Layout == "" {
		f.Layout = DefaultTimeLayout
	}
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return Formatter{}, err
		}
		f.Location = loc
	}
	return f, nil
}

// Format renders t. The zero time renders as an empty string.
func (f Formatter) Format(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	layout := f.Layout
	if layout == "" {
		layout = DefaultTimeLayout
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}
