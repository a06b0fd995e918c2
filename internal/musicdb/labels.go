package musicdb

// String attribute subtypes the extractor routes.
const (
	SubtypeTrackTitle   uint32 = 0x02
	SubtypeAlbum        uint32 = 0x03
	SubtypeArtist       uint32 = 0x04
	SubtypeAlbumArtist  uint32 = 0x1B
	SubtypePlaylistName uint32 = 0xC8
)

// stringLabels lists every boma subtype known to carry UTF-16 text.
var stringLabels = map[uint32]string{
	0x0002: "Track Title",
	0x0003: "Album",
	0x0004: "Artist",
	0x0005: "Genre",
	0x0006: "Kind",
	0x0007: "Unknown (0x07)",
	0x0008: "Comment",
	0x000C: "Composer",
	0x000E: "Grouping",
	0x0012: "Episode Comment",
	0x0016: "Episode Synopsis",
	0x0018: "Series Title",
	0x0019: "Episode Number",
	0x001B: "Album Artist",
	0x001C: "Series Info",
	0x001E: "Sort Order Track Name",
	0x001F: "Sort Order Album",
	0x0020: "Sort Order Artist",
	0x0021: "Sort Order Album Artist",
	0x0022: "Sort Order Composer",
	0x002B: "Copyright Holder",
	0x002E: "Unknown (0x2E)",
	0x0033: "Series Synopsis",
	0x0034: "Flavor String",
	0x003B: "Purchaser Email",
	0x003C: "Purchaser Name",
	0x003F: "Work Name",
	0x0040: "Movement Name",
	0x00C8: "Playlist Name",
	0x012C: "Album (iama)",
	0x012D: "Album Artist (iama)",
	0x012E: "Album Artist (iama, alt)",
	0x012F: "Series Title (alt)",
	0x01F4: "Hex String (0x1F4)",
	0x01F8: "Managed Media Folder",
	0x01FE: "Hex String (0x1FE)",
	0x02BE: "Song Title (application)",
	0x02BF: "Song Artist (application)",
}

// IsStringSubtype reports whether subtype decodes as a StringAttribute.
func IsStringSubtype(subtype uint32) bool {
	_, ok := stringLabels[subtype]
	return ok
}
