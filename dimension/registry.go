package dimension

import "strings"

type entry struct {
	name        string
	description string
	encoding    Encoding
}

var registry = [numIDs]entry{
	Unknown:                   {"Unknown", "Unregistered dimension", None},
	X:                         {"X", "X coordinate", Double},
	Y:                         {"Y", "Y coordinate", Double},
	Z:                         {"Z", "Z coordinate", Double},
	W:                         {"W", "Homogeneous W coordinate", Double},
	Intensity:                 {"Intensity", "Integer representation of the pulse return magnitude", Unsigned16},
	Amplitude:                 {"Amplitude", "Ratio of the received power to the detection threshold, in dB", Float},
	Reflectance:               {"Reflectance", "Ratio of the received power to the power received from a white diffuse target, in dB", Float},
	ReturnNumber:              {"ReturnNumber", "Pulse return number for a given output pulse", Unsigned8},
	NumberOfReturns:           {"NumberOfReturns", "Total number of returns for a given pulse", Unsigned8},
	ScanDirectionFlag:         {"ScanDirectionFlag", "Direction of the scanner mirror at the time of the output pulse", Unsigned8},
	EdgeOfFlightLine:          {"EdgeOfFlightLine", "Set when the point is at the end of a scan line", Unsigned8},
	Classification:            {"Classification", "ASPRS classification code", Unsigned8},
	ScanAngleRank:             {"ScanAngleRank", "Angle of the output laser pulse, in degrees", Float},
	UserData:                  {"UserData", "Unspecified user data", Unsigned8},
	PointSourceID:             {"PointSourceId", "File source ID from which the point originated", Unsigned16},
	Red:                       {"Red", "Red image channel value", Unsigned16},
	Green:                     {"Green", "Green image channel value", Unsigned16},
	Blue:                      {"Blue", "Blue image channel value", Unsigned16},
	GpsTime:                   {"GpsTime", "GPS time at which the point was acquired", Double},
	InternalTime:              {"InternalTime", "Scanner internal time", Double},
	OffsetTime:                {"OffsetTime", "Milliseconds from the first acquired point", Unsigned32},
	IsPpsLocked:               {"IsPpsLocked", "Set when the scanner clock is locked to a PPS signal", Unsigned8},
	StartPulse:                {"StartPulse", "Relative pulse start time", Signed32},
	ReflectedPulse:            {"ReflectedPulse", "Relative reflected pulse time", Signed32},
	Pdop:                      {"Pdop", "GPS positional dilution of precision", Float},
	Pitch:                     {"Pitch", "Platform pitch, in degrees", Float},
	Roll:                      {"Roll", "Platform roll, in degrees", Float},
	PulseWidth:                {"PulseWidth", "Laser received pulse width, in ns", Float},
	Deviation:                 {"Deviation", "Deviation of the pulse shape from the reference shape", Float},
	PassiveSignal:             {"PassiveSignal", "Relative passive signal", Signed32},
	BackgroundRadiation:       {"BackgroundRadiation", "Background radiation level", Float},
	PassiveX:                  {"PassiveX", "X coordinate of a passive sample", Double},
	PassiveY:                  {"PassiveY", "Y coordinate of a passive sample", Double},
	PassiveZ:                  {"PassiveZ", "Z coordinate of a passive sample", Double},
	XVelocity:                 {"XVelocity", "Platform velocity along X", Double},
	YVelocity:                 {"YVelocity", "Platform velocity along Y", Double},
	ZVelocity:                 {"ZVelocity", "Platform velocity along Z", Double},
	Azimuth:                   {"Azimuth", "Platform heading, in degrees", Double},
	WanderAngle:               {"WanderAngle", "Platform wander angle, in degrees", Double},
	XBodyAccel:                {"XBodyAccel", "Platform acceleration along the body X axis", Double},
	YBodyAccel:                {"YBodyAccel", "Platform acceleration along the body Y axis", Double},
	ZBodyAccel:                {"ZBodyAccel", "Platform acceleration along the body Z axis", Double},
	XBodyAngRate:              {"XBodyAngRate", "Platform angular rate about the body X axis", Double},
	YBodyAngRate:              {"YBodyAngRate", "Platform angular rate about the body Y axis", Double},
	ZBodyAngRate:              {"ZBodyAngRate", "Platform angular rate about the body Z axis", Double},
	Flag:                      {"Flag", "General purpose flag", Unsigned8},
	Mark:                      {"Mark", "General purpose mark", Unsigned8},
	Alpha:                     {"Alpha", "Alpha image channel value", Unsigned16},
	EchoRange:                 {"EchoRange", "Distance from the sensor to the echo", Double},
	ScanChannel:               {"ScanChannel", "Scanner channel used to acquire the point", Unsigned8},
	Infrared:                  {"Infrared", "Near infrared image channel value", Unsigned16},
	HeightAboveGround:         {"HeightAboveGround", "Height of the point above the ground surface", Double},
	ClassFlags:                {"ClassFlags", "Combined classification flags", Unsigned8},
	Synthetic:                 {"Synthetic", "Set when the point was created by a process other than acquisition", Unsigned8},
	KeyPoint:                  {"KeyPoint", "Set when the point is a model key point", Unsigned8},
	Withheld:                  {"Withheld", "Set when the point should be excluded from processing", Unsigned8},
	Overlap:                   {"Overlap", "Set when the point lies within an overlap region", Unsigned8},
	LvisLfid:                  {"LvisLfid", "LVIS recorded LFID", Unsigned64},
	ShotNumber:                {"ShotNumber", "LVIS shot number", Unsigned64},
	LongitudeCentroid:         {"LongitudeCentroid", "Longitude at the waveform centroid", Double},
	LatitudeCentroid:          {"LatitudeCentroid", "Latitude at the waveform centroid", Double},
	ElevationCentroid:         {"ElevationCentroid", "Elevation at the waveform centroid", Double},
	LongitudeLow:              {"LongitudeLow", "Longitude of the lowest detected mode", Double},
	LatitudeLow:               {"LatitudeLow", "Latitude of the lowest detected mode", Double},
	ElevationLow:              {"ElevationLow", "Elevation of the lowest detected mode", Double},
	LongitudeHigh:             {"LongitudeHigh", "Longitude of the highest detected mode", Double},
	LatitudeHigh:              {"LatitudeHigh", "Latitude of the highest detected mode", Double},
	ElevationHigh:             {"ElevationHigh", "Elevation of the highest detected mode", Double},
	PointID:                   {"PointId", "Point index in the source view", Unsigned32},
	OriginID:                  {"OriginId", "Index of the source the point was read from", Unsigned32},
	NormalX:                   {"NormalX", "X component of the surface normal", Double},
	NormalY:                   {"NormalY", "Y component of the surface normal", Double},
	NormalZ:                   {"NormalZ", "Z component of the surface normal", Double},
	Curvature:                 {"Curvature", "Local surface curvature", Double},
	Density:                   {"Density", "Estimated local point density", Double},
	Omit:                      {"Omit", "Set when the point should be omitted from output", Unsigned8},
	ClusterID:                 {"ClusterID", "Cluster the point belongs to", Unsigned64},
	NNDistance:                {"NNDistance", "Distance to the k-th nearest neighbor", Double},
	TextureU:                  {"TextureU", "Texture U coordinate", Double},
	TextureV:                  {"TextureV", "Texture V coordinate", Double},
	TextureW:                  {"TextureW", "Texture W coordinate", Double},
	Linearity:                 {"Linearity", "Linearity of the local neighborhood covariance", Double},
	Planarity:                 {"Planarity", "Planarity of the local neighborhood covariance", Double},
	Scattering:                {"Scattering", "Scattering of the local neighborhood covariance", Double},
	Verticality:               {"Verticality", "Verticality of the local neighborhood", Double},
	Omnivariance:              {"Omnivariance", "Geometric mean of the neighborhood covariance eigenvalues", Double},
	Anisotropy:                {"Anisotropy", "Ratio of the largest to smallest eigenvalue variance of the neighborhood", Double},
	Eigenentropy:              {"Eigenentropy", "Entropy of the normalized neighborhood eigenvalues", Double},
	EigenvalueSum:             {"EigenvalueSum", "Sum of the neighborhood covariance eigenvalues", Double},
	SurfaceVariation:          {"SurfaceVariation", "Change of curvature of the local surface", Double},
	DemantkeVerticality:       {"DemantkeVerticality", "Verticality computed from the smallest eigenvector", Double},
	OptimalKNN:                {"OptimalKNN", "Optimal neighborhood size", Unsigned64},
	OptimalRadius:             {"OptimalRadius", "Optimal neighborhood radius", Double},
	Coplanar:                  {"Coplanar", "Set when the neighborhood is coplanar", Unsigned8},
	LocalReachabilityDistance: {"LocalReachabilityDistance", "Local reachability distance", Double},
	LocalOutlierFactor:        {"LocalOutlierFactor", "Local outlier factor", Double},
	Miniball:                  {"Miniball", "Miniball outlier score", Double},
	Reciprocity:               {"Reciprocity", "Fraction of neighbors that also list the point as a neighbor", Double},
	Rank:                      {"Rank", "Rank of the neighborhood covariance", Unsigned8},
	Eigenvalue0:               {"Eigenvalue0", "Smallest neighborhood covariance eigenvalue", Double},
	Eigenvalue1:               {"Eigenvalue1", "Middle neighborhood covariance eigenvalue", Double},
	Eigenvalue2:               {"Eigenvalue2", "Largest neighborhood covariance eigenvalue", Double},
	PlaneFit:                  {"PlaneFit", "Deviation of the point from the best-fit plane", Double},
	RadialDensity:             {"RadialDensity", "Point density within a fixed radius", Double},
	BeamOriginX:               {"BeamOriginX", "X coordinate of the beam origin", Double},
	BeamOriginY:               {"BeamOriginY", "Y coordinate of the beam origin", Double},
	BeamOriginZ:               {"BeamOriginZ", "Z coordinate of the beam origin", Double},
	BeamDirectionX:            {"BeamDirectionX", "X component of the beam direction", Double},
	BeamDirectionY:            {"BeamDirectionY", "Y component of the beam direction", Double},
	BeamDirectionZ:            {"BeamDirectionZ", "Z component of the beam direction", Double},
	NorthPositionRMS:          {"NorthPositionRMS", "RMS error of the north position", Float},
	EastPositionRMS:           {"EastPositionRMS", "RMS error of the east position", Float},
	DownPositionRMS:           {"DownPositionRMS", "RMS error of the down position", Float},
	NorthVelocityRMS:          {"NorthVelocityRMS", "RMS error of the north velocity", Float},
	EastVelocityRMS:           {"EastVelocityRMS", "RMS error of the east velocity", Float},
	DownVelocityRMS:           {"DownVelocityRMS", "RMS error of the down velocity", Float},
	RollRMS:                   {"RollRMS", "RMS error of the roll", Float},
	PitchRMS:                  {"PitchRMS", "RMS error of the pitch", Float},
	HeadingRMS:                {"HeadingRMS", "RMS error of the heading", Float},
	Reliability:               {"Reliability", "Reliability score of the point", Unsigned8},
	EchoPos:                   {"EchoPos", "Position of the echo within the pulse", Unsigned8},
	EchoNorm:                  {"EchoNorm", "Normalized echo position", Double},
	ImgNbr:                    {"ImgNbr", "Index of the image the point was observed in", Unsigned32},
	Image:                     {"Image", "Image the point was observed in", Unsigned32},
	Dimension:                 {"Dimension", "Generic dimension value", Double},
	SphericalRange:            {"SphericalRange", "Range in spherical coordinates", Double},
	SphericalAzimuth:          {"SphericalAzimuth", "Azimuth in spherical coordinates, in degrees", Double},
	SphericalElevation:        {"SphericalElevation", "Elevation in spherical coordinates, in degrees", Double},
}

var byName = func() map[string]ID {
	m := make(map[string]ID, numIDs)
	for id := X; id < numIDs; id++ {
		m[strings.ToLower(registry[id].name)] = id
	}
	return m
}()
