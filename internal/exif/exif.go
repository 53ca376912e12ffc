// Package exif decodes the fixed set of photo metadata fields used by the
// index and evaluates typed tag queries against them.
package exif

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// dateRE expects a leading YYYY-MM, optionally preceded by one extra
// character (string fields are stored wrapped in quotes).
var (
	dateRE     = regexp.MustCompile(`^.?(\d{4})-(\d{2})`)
	dateNormRE = regexp.MustCompile(`(\d{4}):(\d{2}):(\d{2})`)
)

// Record is the per-photo metadata extracted at index-build time.
// Aperture, shutter speed, ISO and focal length are numeric-looking text,
// "0" when absent or unparsable. Model and lens default to "unknown".
type Record struct {
	Year         uint   `json:"year"`
	Month        uint   `json:"month"`
	Model        string `json:"model"`
	Width        uint   `json:"width"`
	Height       uint   `json:"height"`
	DateTime     string `json:"date_time"`
	Aperture     string `json:"aperture"`
	ShutterSpeed string `json:"shutter_speed"`
	ISO          string `json:"iso"`
	FocalLen     string `json:"focal_len"`
	Lens         string `json:"lens"`
}

// Extractor implements EXIF extraction over goexif. It exists as a type so
// the cache can take extraction as a narrow dependency.
type Extractor struct{}

// Extract decodes the metadata record from raw image bytes. When
// wantThumbnail is set, the embedded JPEG thumbnail is returned as well (nil
// when the EXIF block carries none). Extraction fails only when the byte
// stream has no parsable EXIF container at all.
func (Extractor) Extract(data []byte, wantThumbnail bool) (Record, []byte, error) {
	x, err := goexif.Decode(bytes.NewReader(data))
	if err != nil {
		return Record{}, nil, fmt.Errorf("failed to decode exif container: %w", err)
	}

	dateTime := extractTag(x, []goexif.FieldName{
		goexif.DateTimeOriginal,
		goexif.DateTime,
		goexif.DateTimeDigitized,
	}, false)
	dateTime = dateNormRE.ReplaceAllString(dateTime, "$1-$2-$3")
	year, month := parseYearMonth(dateTime)

	rec := Record{
		Year:     year,
		Month:    month,
		DateTime: dateTime,
		Model:    extractTag(x, []goexif.FieldName{goexif.Model}, false),
		Lens: extractTag(x, []goexif.FieldName{
			goexif.LensModel,
			goexif.FieldName("LensSpecification"),
			goexif.LensMake,
		}, false),
		Width:    parseDimension(extractTag(x, []goexif.FieldName{goexif.ImageWidth, goexif.PixelXDimension}, true)),
		Height:   parseDimension(extractTag(x, []goexif.FieldName{goexif.ImageLength, goexif.PixelYDimension}, true)),
		Aperture: extractTag(x, []goexif.FieldName{goexif.FNumber, goexif.ApertureValue}, true),
		ISO:      extractTag(x, []goexif.FieldName{goexif.ISOSpeedRatings}, true),
		FocalLen: extractTag(x, []goexif.FieldName{goexif.FocalLengthIn35mmFilm, goexif.FocalLength}, true),
	}
	rec.ShutterSpeed = extractShutter(x)

	var thumbnail []byte
	if wantThumbnail {
		if thumb, err := x.JpegThumbnail(); err == nil {
			thumbnail = thumb
		}
	}
	return rec, thumbnail, nil
}

// extractTag resolves an output field from an ordered list of candidate
// tags; the first candidate present wins. Numeric fields degrade to "0"
// instead of surfacing a parse error; string fields are stripped of embedded
// quote/comma characters and re-wrapped in quotes so later JSON round-trips
// stay stable.
func extractTag(x *goexif.Exif, candidates []goexif.FieldName, numeric bool) string {
	for _, name := range candidates {
		tag, err := x.Get(name)
		if err != nil {
			continue
		}
		val := displayValue(tag)
		if numeric {
			if _, err := strconv.ParseFloat(val, 64); err != nil {
				return "0"
			}
			return val
		}
		val = strings.ReplaceAll(val, `"`, "")
		val = strings.ReplaceAll(val, ",", "")
		return `"` + strings.TrimSpace(val) + `"`
	}
	if numeric {
		return "0"
	}
	return `"unknown"`
}

// extractShutter keeps the conventional fractional display form: the APEX
// shutter value decodes to decimal seconds, so the exposure-time fraction is
// preferred and its denominator kept ("1/250" becomes "250").
func extractShutter(x *goexif.Exif) string {
	var shutter string
	if tag, err := x.Get(goexif.ShutterSpeedValue); err == nil {
		if num, den, err := tag.Rat2(0); err == nil && den != 0 {
			shutter = strconv.FormatFloat(float64(num)/float64(den), 'f', 2, 64)
		}
	}
	if !strings.Contains(shutter, "/") {
		if tag, err := x.Get(goexif.ExposureTime); err == nil {
			if num, den, err := tag.Rat2(0); err == nil {
				if den == 1 {
					shutter = strconv.FormatInt(num, 10)
				} else {
					shutter = fmt.Sprintf("%d/%d", num, den)
				}
			}
		}
	}
	if parts := strings.Split(shutter, "/"); len(parts) == 2 {
		shutter = parts[1]
	}
	shutter = strings.ReplaceAll(shutter, `"`, "")
	if shutter == "" {
		return "0"
	}
	return shutter
}

// displayValue renders a tag the way queries expect to compare it: strings
// verbatim, integers as base-10, rationals reduced to a decimal.
func displayValue(tag *tiff.Tag) string {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return ""
		}
		return s
	case tiff.IntVal:
		v, err := tag.Int64(0)
		if err != nil {
			return ""
		}
		return strconv.FormatInt(v, 10)
	case tiff.RatVal:
		num, den, err := tag.Rat2(0)
		if err != nil || den == 0 {
			return ""
		}
		if num%den == 0 {
			return strconv.FormatInt(num/den, 10)
		}
		return strconv.FormatFloat(float64(num)/float64(den), 'g', -1, 64)
	default:
		return tag.String()
	}
}

// parseYearMonth derives (year, month) from normalized date text; text that
// does not open with YYYY-MM yields the explicit unknown sentinel (0, 0).
func parseYearMonth(dateTime string) (uint, uint) {
	caps := dateRE.FindStringSubmatch(dateTime)
	if caps == nil {
		return 0, 0
	}
	year, _ := strconv.Atoi(caps[1])
	month, _ := strconv.Atoi(caps[2])
	return uint(year), uint(month)
}

func parseDimension(val string) uint {
	v, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0
	}
	return uint(v)
}
