// Package track turns uploaded GPX documents into ordered point sequences.
package track

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/klach-ocado/10x-aimondo/internal/shared/geo"

	"github.com/tkrajina/gpxgo/gpx"
	"golang.org/x/net/html/charset"
)

// trackPointPath is the element path, by local name, of a point that belongs
// to a track. gpxgo matches elements the same way.
var trackPointPath = []string{"gpx", "trk", "trkseg", "trkpt"}

var xmlDeclEncoding = regexp.MustCompile(`\A\x{FEFF}?\s*<\?xml[^>]*?\sencoding\s*=\s*["']([^"']+)["']`)

// stravaTypeCodes maps the numeric <type> codes written by Strava exports.
var stravaTypeCodes = map[string]string{
	"1":  "Cycling",
	"2":  "AlpineSkiing",
	"3":  "BackcountrySkiing",
	"4":  "Hiking",
	"5":  "IceSkating",
	"6":  "InlineSkating",
	"7":  "CrossCountrySkiing",
	"8":  "RollerSkiing",
	"9":  "Running",
	"10": "Walking",
	"11": "Workout",
	"12": "Snowboarding",
	"13": "Snowshoeing",
	"14": "Kitesurfing",
	"15": "Windsurfing",
	"16": "Swimming",
	"17": "VirtualBiking",
	"18": "EBiking",
	"19": "Velomobile",
	"21": "Paddling",
	"22": "Kayaking",
	"23": "Rowing",
	"24": "StandUpPaddling",
	"25": "Surfing",
	"26": "Crossfit",
	"27": "Elliptical",
	"28": "RockClimbing",
	"29": "StairStepper",
	"30": "WeightTraining",
	"31": "Yoga",
	"51": "Handcycling",
	"52": "Wheelchair",
	"53": "VirtualRunning",
}

// Parse decodes raw GPX text. Points of every track and segment are
// concatenated in document order; <trkpt> elements without a usable lat/lon
// pair are dropped. Documents declaring a non-UTF-8 encoding are transcoded
// first.
func Parse(raw string) (ParsedTrack, error) {
	buf, err := toUTF8([]byte(raw))
	if err != nil {
		return ParsedTrack{}, err
	}

	buf, located, err := scanTrackPoints(buf)
	if err != nil {
		return ParsedTrack{}, err
	}

	doc, err := gpx.ParseBytes(buf)
	if err != nil {
		return ParsedTrack{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if len(doc.Tracks) == 0 {
		return ParsedTrack{}, ErrNoTracks
	}

	var points []RawPoint
	idx := 0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if idx >= len(located) {
					return ParsedTrack{}, fmt.Errorf("%w: track point count mismatch", ErrInvalidFormat)
				}
				ok := located[idx]
				idx++
				if !ok {
					continue
				}
				points = append(points, rawPoint(p))
			}
		}
	}
	if idx != len(located) {
		return ParsedTrack{}, fmt.Errorf("%w: track point count mismatch", ErrInvalidFormat)
	}
	if len(points) == 0 {
		return ParsedTrack{}, ErrNoTrackPoints
	}

	return ParsedTrack{
		ActivityTypeHint: activityType(doc.Creator, doc.Tracks[0].Type),
		Points:           points,
	}, nil
}

func rawPoint(p gpx.GPXPoint) RawPoint {
	rp := RawPoint{Lat: p.Latitude, Lon: p.Longitude}
	if p.Elevation.NotNull() {
		ele := p.Elevation.Value()
		rp.Elevation = &ele
	}
	if !p.Timestamp.IsZero() {
		ts := p.Timestamp.UTC()
		rp.Timestamp = &ts
	}
	return rp
}

func activityType(creator, raw string) string {
	t := strings.TrimSpace(raw)
	if strings.Contains(creator, "Strava") {
		if name, ok := stravaTypeCodes[t]; ok {
			t = name
		}
	}
	if utf8.RuneCountInString(t) > maxActivityTypeLen {
		t = strings.TrimSpace(string([]rune(t)[:maxActivityTypeLen]))
	}
	if utf8.RuneCountInString(t) < minActivityTypeLen {
		return DefaultActivityType
	}
	return t
}

// toUTF8 transcodes a document whose XML declaration names another encoding
// and rewrites the declaration to match. Undeclared input is left as is.
func toUTF8(buf []byte) ([]byte, error) {
	m := xmlDeclEncoding.FindSubmatchIndex(buf)
	if m == nil {
		return buf, nil
	}
	label := strings.ToLower(strings.TrimSpace(string(buf[m[2]:m[3]])))
	if label == "utf-8" || label == "utf8" {
		return buf, nil
	}

	r, err := charset.NewReaderLabel(label, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	m = xmlDeclEncoding.FindSubmatchIndex(out)
	if m == nil {
		return nil, fmt.Errorf("%w: unreadable XML declaration", ErrInvalidFormat)
	}
	utf8Doc := make([]byte, 0, len(out))
	utf8Doc = append(utf8Doc, out[:m[2]]...)
	utf8Doc = append(utf8Doc, "UTF-8"...)
	return append(utf8Doc, out[m[3]:]...), nil
}

type patch struct {
	start, end int
	repl       []byte
}

// scanTrackPoints walks the XML tokens once, checking well-formedness and the
// root element, and reports for every track point in document order whether
// it carries a valid lat/lon pair. Start tags of points without one are
// rewritten to lat="0" lon="0" in the returned copy so gpxgo still decodes
// the rest of the file.
func scanTrackPoints(buf []byte) ([]byte, []bool, error) {
	dec := xml.NewDecoder(bytes.NewReader(buf))

	var (
		located []bool
		patches []patch
		path    []string
	)
	seenRoot := false
	for {
		offset := dec.InputOffset()
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if !seenRoot {
				if el.Name.Local != "gpx" {
					return nil, nil, fmt.Errorf("%w: root element is <%s>", ErrInvalidFormat, el.Name.Local)
				}
				seenRoot = true
			}
			path = append(path, el.Name.Local)
			if !isTrackPoint(path) {
				continue
			}
			ok := hasCoordinates(el.Attr)
			located = append(located, ok)
			if !ok {
				patches = append(patches, clearCoordinates(buf, int(offset), int(dec.InputOffset())))
			}
		case xml.EndElement:
			if len(path) > 0 {
				path = path[:len(path)-1]
			}
		}
	}
	if !seenRoot {
		return nil, nil, fmt.Errorf("%w: no <gpx> element", ErrInvalidFormat)
	}
	return applyPatches(buf, patches), located, nil
}

func isTrackPoint(path []string) bool {
	if len(path) != len(trackPointPath) {
		return false
	}
	for i, name := range trackPointPath {
		if path[i] != name {
			return false
		}
	}
	return true
}

// clearCoordinates replaces the start tag in buf[start:end] with one that
// keeps only the element name and zero coordinates.
func clearCoordinates(buf []byte, start, end int) patch {
	tag := buf[start:end]
	if i := bytes.IndexByte(tag, '<'); i > 0 {
		start += i
		tag = tag[i:]
	}
	name := tag[1:]
	if i := bytes.IndexAny(name, " \t\r\n/>"); i >= 0 {
		name = name[:i]
	}

	repl := make([]byte, 0, len(name)+24)
	repl = append(repl, '<')
	repl = append(repl, name...)
	repl = append(repl, ` lat="0" lon="0"`...)
	if bytes.HasSuffix(bytes.TrimSpace(tag), []byte("/>")) {
		repl = append(repl, "/>"...)
	} else {
		repl = append(repl, '>')
	}
	return patch{start: start, end: end, repl: repl}
}

func applyPatches(buf []byte, patches []patch) []byte {
	if len(patches) == 0 {
		return buf
	}
	out := make([]byte, 0, len(buf))
	prev := 0
	for _, p := range patches {
		out = append(out, buf[prev:p.start]...)
		out = append(out, p.repl...)
		prev = p.end
	}
	return append(out, buf[prev:]...)
}

func hasCoordinates(attrs []xml.Attr) bool {
	var lat, lon float64
	var hasLat, hasLon bool
	for _, a := range attrs {
		v, err := strconv.ParseFloat(strings.TrimSpace(a.Value), 64)
		switch a.Name.Local {
		case "lat":
			lat, hasLat = v, err == nil
		case "lon":
			lon, hasLon = v, err == nil
		}
	}
	return hasLat && hasLon && geo.ValidLatLng(lat, lon)
}
