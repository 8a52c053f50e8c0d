package geocode

// BBox is a geographic rectangle in EPSG:4326.
type BBox struct {
	MinLon float64 `yaml:"min_lon"`
	MinLat float64 `yaml:"min_lat"`
	MaxLon float64 `yaml:"max_lon"`
	MaxLat float64 `yaml:"max_lat"`
}

func (b BBox) Contains(lat, lon float64) bool {
	return b.MinLon <= lon && lon <= b.MaxLon && b.MinLat <= lat && lat <= b.MaxLat
}

// BBoxSet is the target-area rectangles the geocoder scores against.
// Target boxes bound the administrative area the client cares about;
// Outer is the metropolitan envelope used by the address fallback.
type BBoxSet struct {
	Target []BBox `yaml:"target"`
	Outer  BBox   `yaml:"outer"`
}

// InTarget reports whether the coordinate falls inside any target box.
func (s BBoxSet) InTarget(lat, lon float64) bool {
	for _, b := range s.Target {
		if b.Contains(lat, lon) {
			return true
		}
	}
	return false
}

// JongnoBox is the loose rectangle around Jongno-gu, also used by the
// district-filtered export.
func JongnoBox() BBox {
	return BBox{MinLon: 126.94, MinLat: 37.55, MaxLon: 127.04, MaxLat: 37.62}
}

// DefaultBoxes covers Jongno-gu and Jung-gu (loose rectangles) inside
// the Seoul envelope.
func DefaultBoxes() BBoxSet {
	return BBoxSet{
		Target: []BBox{
			JongnoBox(), // 종로구
			{MinLon: 126.955, MinLat: 37.54, MaxLon: 127.04, MaxLat: 37.585}, // 중구
		},
		Outer: BBox{MinLon: 126.734, MinLat: 37.413, MaxLon: 127.269, MaxLat: 37.715},
	}
}
