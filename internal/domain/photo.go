package domain

import (
	"encoding/base64"
	"strings"
)

// Direction is the compass side of the building a photo shows.
type Direction string

const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
)

// AllDirections is the canonical processing and response order.
var AllDirections = []Direction{North, South, East, West}

// ParseDirection validates a direction key from a request body.
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	switch d {
	case North, South, East, West:
		return d, nil
	}
	return "", Invalid("photos", "unknown direction %q", s)
}

// Heading returns the street-view camera heading in degrees that faces the
// given side of the building.
func (d Direction) Heading() int {
	switch d {
	case East:
		return 90
	case South:
		return 180
	case West:
		return 270
	default:
		return 0
	}
}

// Photo is a decoded image for one facade.
type Photo struct {
	Direction   Direction
	MIMEType    string
	Data        []byte
	EncodedSize int // length of the base64 payload as submitted
}

// ParsePhoto decodes a "data:image/<type>;base64,<payload>" URI.
func ParsePhoto(dir Direction, dataURI string) (Photo, error) {
	if !strings.HasPrefix(dataURI, "data:image/") {
		return Photo{}, Invalid("photos", "%s photo is not an image data URI", dir)
	}
	header, payload, ok := strings.Cut(dataURI, ",")
	if !ok || payload == "" {
		return Photo{}, Invalid("photos", "%s photo has no base64 payload", dir)
	}
	if !strings.HasSuffix(header, ";base64") {
		return Photo{}, Invalid("photos", "%s photo is not base64 encoded", dir)
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Photo{}, Invalid("photos", "%s photo: %v", dir, err)
	}
	return Photo{
		Direction:   dir,
		MIMEType:    mime,
		Data:        data,
		EncodedSize: len(payload),
	}, nil
}

// Base64 returns the standard base64 encoding of the photo bytes.
func (p Photo) Base64() string {
	return base64.StdEncoding.EncodeToString(p.Data)
}
