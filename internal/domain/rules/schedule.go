// Package rules contains the pure calculation logic for operating schedules.
// Every function here is a total function over the building class vocabulary:
// random outcomes are decided by the caller and passed in as plain booleans,
// so the tables themselves stay deterministic and table-testable.
// This package is PURE and must NOT import any infrastructure packages.
package rules

import "github.com/mbuendia/CiudadViva/server/internal/domain/building"

// ActiveAtNight decides whether a building class runs a night operation
// (three normal shifts, or two continuous ones). commercialLowDraw carries
// the outcome of the low-density-commercial quota draw.
func ActiveAtNight(s building.Service, sub building.SubService, commercialLowDraw bool) bool {
	switch sub {
	case building.SubServiceCommercialTourist,
		building.SubServiceCommercialLeisure,
		building.SubServiceIndustrialOil,
		building.SubServiceIndustrialOre,
		building.SubServicePlayerIndustryOil,
		building.SubServicePlayerIndustryOre:
		return true
	case building.SubServiceCommercialLow:
		if commercialLowDraw {
			return true
		}
	}

	switch s {
	case building.ServiceIndustrial,
		building.ServiceTourism,
		building.ServiceElectricity,
		building.ServiceWater,
		building.ServiceHealthCare,
		building.ServicePoliceDepartment,
		building.ServiceFireDepartment,
		building.ServicePublicTransport,
		building.ServiceDisaster,
		building.ServiceNatural,
		building.ServiceGarbage,
		building.ServiceRoad,
		building.ServiceHotel,
		building.ServiceServicePoint:
		return true
	default:
		return false
	}
}

// ActiveOnWeekend decides whether a building class opens on weekends.
// commercialLowDraw carries the outcome of the weekend quota draw for
// low-density commercial.
func ActiveOnWeekend(s building.Service, sub building.SubService, commercialLowDraw bool) bool {
	switch sub {
	case building.SubServiceCommercialTourist,
		building.SubServiceCommercialLeisure:
		return true
	case building.SubServiceCommercialLow:
		if commercialLowDraw {
			return true
		}
	}

	switch s {
	case building.ServicePlayerIndustry,
		building.ServiceTourism,
		building.ServiceElectricity,
		building.ServiceWater,
		building.ServiceBeautification,
		building.ServiceHealthCare,
		building.ServicePoliceDepartment,
		building.ServiceFireDepartment,
		building.ServicePublicTransport,
		building.ServiceDisaster,
		building.ServiceMonument,
		building.ServiceGarbage,
		building.ServiceRoad,
		building.ServiceMuseums,
		building.ServiceVarsitySports,
		building.ServiceFishing,
		building.ServiceServicePoint,
		building.ServiceHotel:
		return true
	default:
		return false
	}
}

// ExtendedFirstShift decides whether the first work shift starts early and
// runs long. commercialDraw carries the outcome of the 50% commercial
// coin-flip.
func ExtendedFirstShift(s building.Service, sub building.SubService, commercialDraw bool) bool {
	switch s {
	case building.ServiceCommercial:
		return commercialDraw
	case building.ServiceBeautification,
		building.ServiceEducation,
		building.ServicePlayerIndustry,
		building.ServicePlayerEducation,
		building.ServiceFishing:
		return true
	case building.ServiceIndustrial:
		return sub == building.SubServiceIndustrialFarming || sub == building.SubServiceIndustrialForestry
	default:
		return false
	}
}

// ContinuousShift decides whether the building staffs two twelve-hour
// shifts instead of discrete ones. Low-density commercial can only take a
// continuous shift when it did not already get the extended one; the
// commercialLowDraw carries that 50% outcome.
func ContinuousShift(s building.Service, sub building.SubService, extendedShift, commercialLowDraw bool) bool {
	if sub == building.SubServiceCommercialLow && !extendedShift && commercialLowDraw {
		return true
	}

	switch s {
	case building.ServiceHealthCare,
		building.ServicePoliceDepartment,
		building.ServiceFireDepartment,
		building.ServiceDisaster:
		return true
	default:
		return false
	}
}

// WorkShiftCount derives the number of work shifts from the class and the
// already-decided night/continuous outcomes. The result is always 1, 2 or 3.
func WorkShiftCount(s building.Service, sub building.SubService, level building.Level, activeAtNight, continuousShift bool) int {
	if activeAtNight {
		if continuousShift {
			return 2
		}
		return 3
	}

	switch s {
	case building.ServiceOffice, building.ServiceFishing:
		return 1
	case building.ServiceEducation:
		if level == building.Level3 {
			return 2
		}
		return 1
	case building.ServicePlayerIndustry, building.ServiceIndustrial:
		return 1
	case building.ServiceBeautification,
		building.ServiceMonument,
		building.ServiceCitizen,
		building.ServiceVarsitySports,
		building.ServicePlayerEducation:
		return 2
	default:
		return 1
	}
}
