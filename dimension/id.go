package dimension

import (
	"fmt"
	"strings"
)

// ID identifies the meaning of a dimension.
//
// IDs are stable for the lifetime of the process; the zero value is Unknown.
type ID uint16

// Known dimension IDs.
const (
	Unknown ID = iota
	X
	Y
	Z
	W
	Intensity
	Amplitude
	Reflectance
	ReturnNumber
	NumberOfReturns
	ScanDirectionFlag
	EdgeOfFlightLine
	Classification
	ScanAngleRank
	UserData
	PointSourceID
	Red
	Green
	Blue
	GpsTime
	InternalTime
	OffsetTime
	IsPpsLocked
	StartPulse
	ReflectedPulse
	Pdop
	Pitch
	Roll
	PulseWidth
	Deviation
	PassiveSignal
	BackgroundRadiation
	PassiveX
	PassiveY
	PassiveZ
	XVelocity
	YVelocity
	ZVelocity
	Azimuth
	WanderAngle
	XBodyAccel
	YBodyAccel
	ZBodyAccel
	XBodyAngRate
	YBodyAngRate
	ZBodyAngRate
	Flag
	Mark
	Alpha
	EchoRange
	ScanChannel
	Infrared
	HeightAboveGround
	ClassFlags
	Synthetic
	KeyPoint
	Withheld
	Overlap
	LvisLfid
	ShotNumber
	LongitudeCentroid
	LatitudeCentroid
	ElevationCentroid
	LongitudeLow
	LatitudeLow
	ElevationLow
	LongitudeHigh
	LatitudeHigh
	ElevationHigh
	PointID
	OriginID
	NormalX
	NormalY
	NormalZ
	Curvature
	Density
	Omit
	ClusterID
	NNDistance
	TextureU
	TextureV
	TextureW
	Linearity
	Planarity
	Scattering
	Verticality
	Omnivariance
	Anisotropy
	Eigenentropy
	EigenvalueSum
	SurfaceVariation
	DemantkeVerticality
	OptimalKNN
	OptimalRadius
	Coplanar
	LocalReachabilityDistance
	LocalOutlierFactor
	Miniball
	Reciprocity
	Rank
	Eigenvalue0
	Eigenvalue1
	Eigenvalue2
	PlaneFit
	RadialDensity
	BeamOriginX
	BeamOriginY
	BeamOriginZ
	BeamDirectionX
	BeamDirectionY
	BeamDirectionZ
	NorthPositionRMS
	EastPositionRMS
	DownPositionRMS
	NorthVelocityRMS
	EastVelocityRMS
	DownVelocityRMS
	RollRMS
	PitchRMS
	HeadingRMS
	Reliability
	EchoPos
	EchoNorm
	ImgNbr
	Image
	Dimension
	SphericalRange
	SphericalAzimuth
	SphericalElevation

	numIDs
)

// Known reports whether id is part of the registry (Unknown excluded).
func (id ID) Known() bool {
	return id > Unknown && id < numIDs
}

// Name returns the registered name of id.
//
// Unlike the package-level Name it never fails; unregistered IDs render as
// "Unknown(<n>)".
func (id ID) Name() string {
	if !id.Known() {
		return fmt.Sprintf("Unknown(%d)", uint16(id))
	}
	return registry[id].name
}

// String implements fmt.Stringer.
func (id ID) String() string { return id.Name() }

// Name returns the registered name of id.
func Name(id ID) (string, error) {
	if !id.Known() {
		return "", &UnknownDimensionError{ID: id}
	}
	return registry[id].name, nil
}

// Description returns a human readable description of id.
func Description(id ID) (string, error) {
	if !id.Known() {
		return "", &UnknownDimensionError{ID: id}
	}
	return registry[id].description, nil
}

// DefaultEncoding returns the encoding readers use for id when a source
// format does not dictate one.
func DefaultEncoding(id ID) (Encoding, error) {
	if !id.Known() {
		return None, &UnknownDimensionError{ID: id}
	}
	return registry[id].encoding, nil
}

// ByName resolves a dimension name. Matching ignores case.
func ByName(name string) (ID, error) {
	if id, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return id, nil
	}
	return Unknown, &UnknownDimensionError{Name: name}
}

// All returns every registered ID in ordinal order.
func All() []ID {
	ids := make([]ID, 0, numIDs-1)
	for id := X; id < numIDs; id++ {
		ids = append(ids, id)
	}
	return ids
}

// Type is a dimension stored with a particular encoding.
type Type struct {
	ID       ID
	Encoding Encoding
}

// DimensionID returns t.ID.
func (t Type) DimensionID() ID { return t.ID }

// Size returns the byte width of t's encoding.
func (t Type) Size() int { return t.Encoding.Size() }

// String implements fmt.Stringer.
func (t Type) String() string {
	return t.ID.Name() + ":" + t.Encoding.Name()
}

// DefaultType returns the Type of id stored with its default encoding.
func DefaultType(id ID) (Type, error) {
	enc, err := DefaultEncoding(id)
	if err != nil {
		return Type{}, err
	}
	return Type{ID: id, Encoding: enc}, nil
}
