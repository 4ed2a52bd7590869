// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package market

import "github.com/AleutianAI/Harborview/services/advisor/datatypes"

// DemoSource returns a StaticSource seeded with a representative sample
// dataset, so the advisor can run end to end without a domain database.
// Deliberately uneven: some areas carry all seven domains, some only a few,
// so partial profiles show up in normal demo use.
func DemoSource() *StaticSource {
	return &StaticSource{
		Markets: map[string]*datatypes.MarketMetrics{
			"katy": {
				Area: "katy", TotalSales: 412, MedianPrice: 385_000, PricePerSqft: 158,
				CityAvgPPSF: 172, AvgDaysOnMarket: 34, MonthsInventory: 2.8,
				YoYPriceChange: 6.2, ListToSaleRatio: 97.4,
			},
			"cypress": {
				Area: "cypress", TotalSales: 388, MedianPrice: 352_000, PricePerSqft: 149,
				CityAvgPPSF: 172, AvgDaysOnMarket: 29, MonthsInventory: 2.4,
				YoYPriceChange: 7.8, ListToSaleRatio: 98.3,
			},
			"sugar land": {
				Area: "sugar land", TotalSales: 214, MedianPrice: 465_000, PricePerSqft: 181,
				CityAvgPPSF: 172, AvgDaysOnMarket: 41, MonthsInventory: 3.1,
				YoYPriceChange: 4.1, ListToSaleRatio: 96.8,
			},
			"spring": {
				Area: "spring", TotalSales: 276, MedianPrice: 268_000, PricePerSqft: 128,
				CityAvgPPSF: 172, AvgDaysOnMarket: 38, MonthsInventory: 3.4,
				YoYPriceChange: 3.5, ListToSaleRatio: 95.9,
			},
			"conroe": {
				Area: "conroe", TotalSales: 301, MedianPrice: 295_000, PricePerSqft: 134,
				CityAvgPPSF: 172, AvgDaysOnMarket: 47, MonthsInventory: 4.2,
				YoYPriceChange: 2.9, ListToSaleRatio: 95.1,
				CompetitiveFlags: []string{"oversupply"},
			},
		},
		Rentals: map[string]*datatypes.RentalMarket{
			"katy": {
				Area: "katy", MedianRent: 2_150, AvgRent: 2_240, OccupancyRate: 94.2,
				YoYRentChange: 3.8, AvgROI: 12.4,
			},
			"cypress": {
				Area: "cypress", MedianRent: 1_980, AvgRent: 2_040, OccupancyRate: 95.1,
				YoYRentChange: 4.4, AvgROI: 14.2,
			},
			"spring": {
				Area: "spring", MedianRent: 1_650, AvgRent: 1_720, OccupancyRate: 92.8,
				YoYRentChange: 2.1, AvgROI: 17.6,
			},
		},
		ShortTerms: map[string]*datatypes.ShortTermRental{
			"katy": {
				Area: "katy", ActiveListings: 86, AvgDailyRate: 142, OccupancyRate: 58.3,
				MonthlyRevenue: 2_480,
			},
			"conroe": {
				Area: "conroe", ActiveListings: 174, AvgDailyRate: 188, OccupancyRate: 63.7,
				MonthlyRevenue: 3_590,
			},
		},
		Employments: map[string]*datatypes.Employment{
			"katy": {
				Area: "katy", UnemploymentRate: 3.7, JobGrowthYoY: 2.8,
				MajorEmployers: []datatypes.Employer{
					{Name: "Katy ISD", Sector: "education", Employees: 12_400},
					{Name: "Memorial Hermann Katy", Sector: "healthcare", Employees: 2_100},
					{Name: "Igloo Products", Sector: "manufacturing", Employees: 1_200},
				},
			},
			"sugar land": {
				Area: "sugar land", UnemploymentRate: 3.4, JobGrowthYoY: 2.1,
				MajorEmployers: []datatypes.Employer{
					{Name: "Fluor Corporation", Sector: "engineering", Employees: 3_400},
					{Name: "Schlumberger", Sector: "energy", Employees: 2_800},
				},
			},
		},
		Demographic: map[string]*datatypes.Demographics{
			"katy": {
				Area: "katy", Population: 371_000, PopulationGrowth: 3.4,
				MedianHouseholdIncome: 102_500, MedianAge: 35.2,
			},
			"cypress": {
				Area: "cypress", Population: 218_000, PopulationGrowth: 4.1,
				MedianHouseholdIncome: 94_300, MedianAge: 34.1,
			},
			"sugar land": {
				Area: "sugar land", Population: 111_000, PopulationGrowth: 0.8,
				MedianHouseholdIncome: 130_800, MedianAge: 41.6,
			},
		},
		Constructions: map[string]*datatypes.Construction{
			"katy": {
				Area: "katy", PermitCount: 134, NewUnits: 210, ActiveBuilders: 14,
				AvgCostPerSqft: 162, AvgUnitPrice: 412_000, AvgConstructionUSD: 405_000,
			},
			"cypress": {
				Area: "cypress", PermitCount: 188, NewUnits: 340, ActiveBuilders: 19,
				AvgCostPerSqft: 151, AvgUnitPrice: 368_000, AvgConstructionUSD: 377_500,
			},
			"conroe": {
				Area: "conroe", PermitCount: 96, NewUnits: 185, ActiveBuilders: 11,
				AvgCostPerSqft: 139, AvgUnitPrice: 315_000, AvgConstructionUSD: 347_500,
			},
		},
		Developments: map[string]*datatypes.Development{
			"katy": {
				Area: "katy", ProjectCount: 9, MixedUseCount: 3, ResidentialCount: 5,
				CommercialCount: 1, TotalInvestment: 410_000_000,
			},
			"cypress": {
				Area: "cypress", ProjectCount: 7, MixedUseCount: 2, ResidentialCount: 4,
				CommercialCount: 1, TotalInvestment: 260_000_000,
			},
		},
	}
}
