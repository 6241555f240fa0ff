// Package srs models the spatial reference attached to point views.
//
// Only the textual forms are handled: a reference is carried as WKT and as a
// PROJ.4 string, either of which may be empty. No coordinate transformation
// is performed.
package srs

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalid is returned when text cannot be recognized as a spatial reference.
var ErrInvalid = errors.New("srs: invalid spatial reference")

// SpatialReference is the textual description of a coordinate system.
type SpatialReference struct {
	WKT   string
	PROJ4 string
}

// IsEmpty reports whether neither form is set.
func (s SpatialReference) IsEmpty() bool {
	return s.WKT == "" && s.PROJ4 == ""
}

// EPSG returns the EPSG code named by the WKT AUTHORITY clause, if any.
func (s SpatialReference) EPSG() (int, bool) {
	return authorityCode(s.WKT)
}

// String returns the WKT form, or the PROJ.4 form when WKT is empty.
func (s SpatialReference) String() string {
	if s.WKT != "" {
		return s.WKT
	}
	return s.PROJ4
}

type known struct {
	wkt   string
	proj4 string
}

var registry = map[int]known{
	4326: {
		wkt:   `GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AXIS["Latitude",NORTH],AXIS["Longitude",EAST],AUTHORITY["EPSG","4326"]]`,
		proj4: "+proj=longlat +datum=WGS84 +no_defs",
	},
	3857: {
		wkt:   `PROJCS["WGS 84 / Pseudo-Mercator",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Mercator_1SP"],PARAMETER["central_meridian",0],PARAMETER["scale_factor",1],PARAMETER["false_easting",0],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","3857"]]`,
		proj4: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +nadgrids=@null +wktext +no_defs",
	},
	2993: {
		wkt:   `PROJCS["NAD83(HARN) / Oregon GIC Lambert (ft)",GEOGCS["NAD83(HARN)",DATUM["NAD83_High_Accuracy_Reference_Network",SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]],AUTHORITY["EPSG","6152"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4152"]],PROJECTION["Lambert_Conformal_Conic_2SP"],PARAMETER["latitude_of_origin",41.75],PARAMETER["central_meridian",-120.5],PARAMETER["standard_parallel_1",43],PARAMETER["standard_parallel_2",45.5],PARAMETER["false_easting",1312335.958],PARAMETER["false_northing",0],UNIT["foot",0.3048,AUTHORITY["EPSG","9002"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","2993"]]`,
		proj4: "+proj=lcc +lat_0=41.75 +lon_0=-120.5 +lat_1=43 +lat_2=45.5 +x_0=400000 +y_0=0 +ellps=GRS80 +towgs84=0,0,0,0,0,0,0 +units=ft +no_defs",
	},
	32610: {
		wkt:   `PROJCS["WGS 84 / UTM zone 10N",GEOGCS["WGS 84",DATUM["WGS_1984",SPHEROID["WGS 84",6378137,298.257223563,AUTHORITY["EPSG","7030"]],AUTHORITY["EPSG","6326"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4326"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-123],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","32610"]]`,
		proj4: "+proj=utm +zone=10 +datum=WGS84 +units=m +no_defs",
	},
	26910: {
		wkt:   `PROJCS["NAD83 / UTM zone 10N",GEOGCS["NAD83",DATUM["North_American_Datum_1983",SPHEROID["GRS 1980",6378137,298.257222101,AUTHORITY["EPSG","7019"]],AUTHORITY["EPSG","6269"]],PRIMEM["Greenwich",0,AUTHORITY["EPSG","8901"]],UNIT["degree",0.0174532925199433,AUTHORITY["EPSG","9122"]],AUTHORITY["EPSG","4269"]],PROJECTION["Transverse_Mercator"],PARAMETER["latitude_of_origin",0],PARAMETER["central_meridian",-123],PARAMETER["scale_factor",0.9996],PARAMETER["false_easting",500000],PARAMETER["false_northing",0],UNIT["metre",1,AUTHORITY["EPSG","9001"]],AXIS["Easting",EAST],AXIS["Northing",NORTH],AUTHORITY["EPSG","26910"]]`,
		proj4: "+proj=utm +zone=10 +datum=NAD83 +units=m +no_defs",
	},
}

// FromEPSG returns the reference for a code in the built-in table.
func FromEPSG(code int) (SpatialReference, error) {
	k, ok := registry[code]
	if !ok {
		return SpatialReference{}, fmt.Errorf("%w: EPSG:%d is not in the built-in table", ErrInvalid, code)
	}
	return SpatialReference{WKT: k.wkt, PROJ4: k.proj4}, nil
}

var wktRoots = []string{"GEOGCS[", "PROJCS[", "GEOCCS[", "COMPD_CS[", "VERT_CS[", "LOCAL_CS[", "GEOGCRS[", "PROJCRS[", "COMPOUNDCRS["}

// Parse recognizes "EPSG:<code>", a PROJ.4 string or WKT.
//
// An empty string yields an empty reference. For WKT with an AUTHORITY code
// from the built-in table the PROJ.4 form is filled in.
func Parse(text string) (SpatialReference, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return SpatialReference{}, nil
	case len(text) > 5 && strings.EqualFold(text[:5], "EPSG:"):
		code, err := strconv.Atoi(strings.TrimSpace(text[5:]))
		if err != nil {
			return SpatialReference{}, fmt.Errorf("%w: %q", ErrInvalid, text)
		}
		return FromEPSG(code)
	case strings.HasPrefix(text, "+"):
		if !strings.Contains(text, "+proj=") && !strings.Contains(text, "+init=") {
			return SpatialReference{}, fmt.Errorf("%w: PROJ.4 string without +proj: %q", ErrInvalid, text)
		}
		return SpatialReference{PROJ4: text}, nil
	}

	upper := strings.ToUpper(text)
	for _, root := range wktRoots {
		if strings.HasPrefix(upper, root) {
			if strings.Count(text, "[") != strings.Count(text, "]") {
				return SpatialReference{}, fmt.Errorf("%w: unbalanced WKT brackets", ErrInvalid)
			}
			sr := SpatialReference{WKT: text}
			if code, ok := authorityCode(text); ok {
				if k, ok := registry[code]; ok {
					sr.PROJ4 = k.proj4
				}
			}
			return sr, nil
		}
	}
	return SpatialReference{}, fmt.Errorf("%w: %q", ErrInvalid, truncate(text, 40))
}

// The outermost AUTHORITY clause is the last one in the text.
var authorityRe = regexp.MustCompile(`AUTHORITY\["EPSG","(\d+)"\]\]\s*$`)

func authorityCode(wkt string) (int, bool) {
	m := authorityRe.FindStringSubmatch(wkt)
	if m == nil {
		return 0, false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return code, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
