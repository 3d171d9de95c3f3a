package tz

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"

	"github.com/smokyabdulrahman/salah/internal/geo"
)

// HijriDate is a date on the tabular Islamic civil calendar.
type HijriDate struct {
	Year  int
	Month int // 1..12
	Day   int // 1..30
}

var hijriMonthsEn = [12]string{
	"Muharram", "Safar", "Rabi' al-awwal", "Rabi' al-thani",
	"Jumada al-awwal", "Jumada al-thani", "Rajab", "Sha'ban",
	"Ramadan", "Shawwal", "Dhu al-Qi'dah", "Dhu al-Hijjah",
}

var hijriMonthsAr = [12]string{
	"محرم", "صفر", "ربيع الأول", "ربيع الآخر",
	"جمادى الأولى", "جمادى الآخرة", "رجب", "شعبان",
	"رمضان", "شوال", "ذو القعدة", "ذو الحجة",
}

var supportedLocales = []language.Tag{language.English, language.Arabic}

var localeMatcher = language.NewMatcher(supportedLocales)

// ToHijri converts a Gregorian calendar day.
func ToHijri(year int, month time.Month, day int) HijriDate {
	l := julianDay(year, int(month), day) - 1948440 + 10632
	n := (l - 1) / 10631
	l = l - 10631*n + 354
	j := ((10985-l)/5316)*((50*l)/17719) + (l/5670)*((43*l)/15238)
	l = l - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	m := (24 * l) / 709
	return HijriDate{
		Year:  30*n + j - 30,
		Month: m,
		Day:   l - (709*m)/24,
	}
}

// julianDay is the Julian day number of a proleptic Gregorian date.
func julianDay(y, m, d int) int {
	a := (14 - m) / 12
	y += 4800 - a
	m += 12*a - 3
	return d + (153*m+2)/5 + 365*y + y/4 - y/100 + y/400 - 32045
}

// Hijri formats the Hijri date of the location's calendar day for t.
// locale is a BCP 47 tag; an empty locale means English. Locales that
// match neither English nor Arabic yield "".
func Hijri(t time.Time, loc geo.Location, locale string) string {
	tag := language.English
	if strings.TrimSpace(locale) != "" {
		want, err := language.Parse(locale)
		if err != nil {
			return ""
		}
		_, idx, conf := localeMatcher.Match(want)
		if conf == language.No {
			return ""
		}
		tag = supportedLocales[idx]
	}

	y, m, d := CalendarDate(t, loc)
	h := ToHijri(y, m, d)
	if h.Month < 1 || h.Month > 12 {
		return ""
	}

	if tag == language.Arabic {
		return arabicDigits(fmt.Sprintf("%d %s %d", h.Day, hijriMonthsAr[h.Month-1], h.Year)) + " هـ"
	}
	return fmt.Sprintf("%d %s %d AH", h.Day, hijriMonthsEn[h.Month-1], h.Year)
}

func arabicDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune('٠' + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
