package footprint

// Unknown marks a categorical field whose answer matched no table entry.
const Unknown = "UNKNOWN"

// Canonical labels as stored in the emission factor table.
const (
	LabelCarPetrol      = "PKW Benzin"
	LabelCarDiesel      = "PKW Diesel"
	LabelHybrid         = "Hybrid HEV"
	LabelPlugInHybrid   = "PlugInHybrid PHEV"
	LabelElectricCar    = "Elektroauto BEV EU Strommix"
	LabelBus            = "ÖPNV Bus Diesel"
	LabelRail           = "ÖPNV Bahn/Tram"
	LabelBicycle        = "Fahrrad"
	LabelEBike          = "E-Bike/E-Roller"
	LabelWalking        = "Zu Fuß"
	LabelFlightShort    = "Flugreisen Kurzstrecke (<1500 km)"
	LabelFlightMedium   = "Flugreisen Mittelstrecke (1500–3500 km)"
	LabelFlightLong     = "Flugreisen Langstrecke (>3500 km)"
	LabelNaturalGas     = "Erdgas (Brennwert)"
	LabelHeatingOil     = "Heizöl extra leicht"
	LabelPellets        = "Biomasse Pellets"
	LabelCordwood       = "Biomasse Stückholz"
	LabelDistrictHeat   = "Fernwärme Ø Österreich"
	LabelHeatPump       = "Wärmepumpe (EU-Strommix, JAZ 3)"
	LabelSolarThermal   = "Solarthermie"
	LabelGreenPower     = "Ökostrom"
	LabelGridPower      = "Strom Ö-Mix"
)

// LabelWarmWaterDemand keys the annual warm-water energy demand factor.
const LabelWarmWaterDemand = "Energiebedarf Warmwasser"

// DistanceBuckets maps commute distance ranges to a representative one-way km
// value. Input is matched with whitespace removed.
var DistanceBuckets = Table[float64]{
	{"<10", 5},
	{"10-20", 15},
	{"20-30", 25},
	{"30-40", 35},
	{"40-50", 45},
	{"50-60", 55},
	{">60", 80},
}

// AltFrequencies maps how often an alternative mode is used to the share of
// commute days it covers.
var AltFrequencies = Table[float64]{
	{"oft", 1.0 / 3},
	{"selten", 0.1},
	{"manchmal", 1.0 / 30},
	{"nie", 0},
}

// FlightCounts maps flight-count buckets to the expected annual number of
// flights. Keys are compared whole with Lookup, never as substrings.
var FlightCounts = Table[float64]{
	{"5-10", 7},
	{"2-5", 3.2},
	{"1-2", 1.9},
	{"0", 0},
}

// FlightDistances maps the typical flight range to its factor label.
var FlightDistances = Table[string]{
	{"kurzstrecke", LabelFlightShort},
	{"mittelstrecke", LabelFlightMedium},
	{"langstrecke", LabelFlightLong},
}

// flightKm holds the display-only one-way km proxy per flight label.
var flightKm = map[string]int{
	LabelFlightShort:  750,
	LabelFlightMedium: 2500,
	LabelFlightLong:   5000,
}

// Transports maps the main or alternative commute answer to a transport label.
var Transports = Table[string]{
	{"plugin hybrid", LabelPlugInHybrid},
	{"plug in hybrid", LabelPlugInHybrid},
	{"plug-in hybrid", LabelPlugInHybrid},
	{"plug-in-hybrid", LabelPlugInHybrid},
	{"plugin-hybrid", LabelPlugInHybrid},
	{"phev", LabelPlugInHybrid},
	{"hybrid", LabelHybrid},
	{"pkw benzin", LabelCarPetrol},
	{"auto benzin", LabelCarPetrol},
	{"pkw diesel", LabelCarDiesel},
	{"auto diesel", LabelCarDiesel},
	{"elektrofahrrad", LabelEBike},
	{"e-bike", LabelEBike},
	{"ebike", LabelEBike},
	{"e bike", LabelEBike},
	{"e-roller", LabelEBike},
	{"roller", LabelEBike},
	{"e-auto", LabelElectricCar},
	{"eauto", LabelElectricCar},
	{"e auto", LabelElectricCar},
	{"elektro", LabelElectricCar},
	{"firmenwagen", LabelCarPetrol},
	{"bus", LabelBus},
	{"offis", LabelRail},
	{"oeffis", LabelRail},
	{"opnv", LabelRail},
	{"zug", LabelRail},
	{"bahn", LabelRail},
	{"tram", LabelRail},
	{"fahrrad", LabelBicycle},
	{"bike", LabelBicycle},
	{"zu fuss", LabelWalking},
	{"gehen", LabelWalking},
}

// CarTypes maps the drive type of a car; consulted only when Transports
// yields nothing.
var CarTypes = Table[string]{
	{"plugin hybrid", LabelPlugInHybrid},
	{"plug in hybrid", LabelPlugInHybrid},
	{"plug-in hybrid", LabelPlugInHybrid},
	{"plug-in-hybrid", LabelPlugInHybrid},
	{"plugin-hybrid", LabelPlugInHybrid},
	{"phev", LabelPlugInHybrid},
	{"hybrid", LabelHybrid},
	{"benzin", LabelCarPetrol},
	{"diesel", LabelCarDiesel},
	{"e-auto", LabelElectricCar},
	{"elektro", LabelElectricCar},
}

// HeatSources maps heating and warm-water answers to an energy source label.
// "ol" sits near the end since "solar" and "holz" contain it.
var HeatSources = Table[string]{
	{"okostrom", LabelGreenPower},
	{"warmepumpe", LabelHeatPump},
	{"fernwarme", LabelDistrictHeat},
	{"pellets", LabelPellets},
	{"stuckholz", LabelCordwood},
	{"holz", LabelCordwood},
	{"solar", LabelSolarThermal},
	{"erdgas", LabelNaturalGas},
	{"gas", LabelNaturalGas},
	{"heizol", LabelHeatingOil},
	{"ol", LabelHeatingOil},
	{"strom", LabelGridPower},
}
