package models

// BranchModel tags a service line. The tag is stored on ledger rows to say
// which service table their source record lives in.
type BranchModel string

const (
	BranchLaboratory BranchModel = "Laboratory"
	BranchUltrasound BranchModel = "Ultrasound"
	BranchOCT        BranchModel = "OCT"
	BranchOPD        BranchModel = "OPD"
	BranchOperation  BranchModel = "Operation"
	BranchBedroom    BranchModel = "Bedroom"
	BranchYeglizer   BranchModel = "Yeglizer"
)

var AllBranches = []BranchModel{
	BranchLaboratory,
	BranchUltrasound,
	BranchOCT,
	BranchOPD,
	BranchOperation,
	BranchBedroom,
	BranchYeglizer,
}

func (b BranchModel) Valid() bool {
	for _, known := range AllBranches {
		if b == known {
			return true
		}
	}
	return false
}
