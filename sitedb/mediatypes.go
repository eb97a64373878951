package sitedb

// MediaType is one kind of physical backup media. The tag is what gets
// persisted in MEDIATYPE fields; the display name is for rendering only.
type MediaType struct {
	Tag         string
	DisplayName string
}

var (
	Tape       = MediaType{"tape", "Tape"}
	ExternalHD = MediaType{"externalHD", "External HD"}
	CDRW       = MediaType{"CDRW", "Read/Write CD"}
	Flash      = MediaType{"flash", "Flash Drive"}

	// UnknownType is what an unrecognised stored tag maps to. Old rows keep
	// decoding after a type is retired; they just render as unknown.
	UnknownType = MediaType{"unknown", "Unknown"}
)

// KnownTypes lists every recognised media type, in registry order.
func KnownTypes() []MediaType {
	return []MediaType{Tape, ExternalHD, CDRW, Flash}
}

// MediaTypeFor maps a persisted tag back to its media type, falling back to
// UnknownType for tags no longer (or never) registered.
func MediaTypeFor(tag string) MediaType {
	for _, mt := range KnownTypes() {
		if mt.Tag == tag {
			return mt
		}
	}
	return UnknownType
}

// IsKnownType reports whether tag names a registered media type.
func IsKnownType(tag string) bool {
	return MediaTypeFor(tag) != UnknownType
}
