package ai

// Species describes one entry the network can report.
type Species struct {
	Scientific string
	Common     string
	Category   string
}

// speciesTable maps COCO class IDs from the SSD MobileNet model onto the
// wildlife species this application reports. Non-animal classes are
// intentionally absent; unknown class IDs are dropped at the boundary.
var speciesTable = map[int]Species{
	16: {Scientific: "Passer montanus", Common: "Eurasian tree sparrow", Category: "bird"},
	17: {Scientific: "Felis catus", Common: "Feral cat", Category: "mammal"},
	18: {Scientific: "Nyctereutes procyonoides", Common: "Raccoon dog", Category: "mammal"},
	19: {Scientific: "Equus caballus", Common: "Horse", Category: "mammal"},
	20: {Scientific: "Capricornis crispus", Common: "Japanese serow", Category: "mammal"},
	21: {Scientific: "Cervus nippon", Common: "Sika deer", Category: "mammal"},
	22: {Scientific: "Sus scrofa", Common: "Wild boar", Category: "mammal"},
	23: {Scientific: "Ursus thibetanus", Common: "Asian black bear", Category: "mammal"},
	24: {Scientific: "Macaca fuscata", Common: "Japanese macaque", Category: "mammal"},
	25: {Scientific: "Vulpes vulpes", Common: "Red fox", Category: "mammal"},
}

// SupportedSpecies returns the species the detector can report.
func SupportedSpecies() []Species {
	out := make([]Species, 0, len(speciesTable))
	for _, s := range speciesTable {
		out = append(out, s)
	}
	return out
}
