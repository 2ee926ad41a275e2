package statusmap

import "whereis/internal/features/tracking/domain"

// FedExTable maps (derivedStatusCode, eventType).
var FedExTable = Table{
	Carrier: domain.CarrierFedEx,
	Rules: []Rule{
		{"IN", "OC", 3000},
		{"IT", "DR", 3250},
		{"IT", "DP", 3004},
		{"IT", "AR", 3002},
		{"IT", "IT", 3001},
		{"IT", "AF", 3001},
		{"IT", "CC", 3400},
		{"IT", "OD", 3450},
		{"PU", Wildcard, 3050},
		{"DL", Wildcard, domain.StatusDelivered},
	},
}

// SFExpressTable maps (secondaryStatusCode, opCode).
var SFExpressTable = Table{
	Carrier: domain.CarrierSFExpress,
	Rules: []Rule{
		{"101", Wildcard, 3100},
		{"201", "30", 3001},
		{"201", "31", 3002},
		{"201", "36", 3004},
		{"201", "105", 3250},
		{"201", "106", 3300},
		{"201", "310", 3002},
		{"204", "605", 3350},
		{"301", "44", 3001},
		{"301", "204", 3450},
		{"401", "80", domain.StatusDelivered},
		{"1301", "70", 3300},
	},
}
