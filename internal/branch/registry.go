// Package branch holds the static franchise registry. Branch data is
// compiled in and immutable at runtime; lookups are total and fall back
// to the default branch rather than failing.
package branch

import "strings"

type BankDetails struct {
	AccountName   string `json:"accountName"`
	AccountNumber string `json:"accountNumber"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bankName"`
}

type Branch struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	BranchCode string       `json:"branchCode"`
	Address    string       `json:"address"`
	City       string       `json:"city"`
	State      string       `json:"state"`
	Pincode    string       `json:"pincode"`
	Phone      string       `json:"phone"`
	Email      string       `json:"email"`
	GSTNumber  string       `json:"gstNumber"`
	UPIID      string       `json:"upiId,omitempty"`
	Bank       *BankDetails `json:"bankDetails,omitempty"`
}

var branches = []Branch{
	{
		ID:         "pollachi",
		Name:       "FZ Clean Pollachi",
		BranchCode: "POL",
		Address:    "42 Palghat Road, Mahalingapuram",
		City:       "Pollachi",
		State:      "Tamil Nadu",
		Pincode:    "642002",
		Phone:      "+91 94430 12345",
		Email:      "pollachi@fzclean.in",
		GSTNumber:  "33AABCF2194M1Z5",
		UPIID:      "fzclean.pollachi@ybl",
		Bank: &BankDetails{
			AccountName:   "FZ Clean Pollachi",
			AccountNumber: "50100234567891",
			IFSC:          "HDFC0001627",
			BankName:      "HDFC Bank, Pollachi",
		},
	},
	{
		ID:         "kinathukadavu",
		Name:       "FZ Clean Kinathukadavu",
		BranchCode: "KIN",
		Address:    "7 Pollachi Main Road",
		City:       "Kinathukadavu",
		State:      "Tamil Nadu",
		Pincode:    "642109",
		Phone:      "+91 94430 23456",
		Email:      "kinathukadavu@fzclean.in",
		GSTNumber:  "33AABCF2194M2Z4",
		UPIID:      "fzclean.kkd@ybl",
		Bank: &BankDetails{
			AccountName:   "FZ Clean Kinathukadavu",
			AccountNumber: "50100234567902",
			IFSC:          "HDFC0003918",
			BankName:      "HDFC Bank, Kinathukadavu",
		},
	},
	{
		ID:         "coimbatore",
		Name:       "FZ Clean Coimbatore RS Puram",
		BranchCode: "CBE",
		Address:    "118 DB Road, RS Puram",
		City:       "Coimbatore",
		State:      "Tamil Nadu",
		Pincode:    "641002",
		Phone:      "+91 94430 34567",
		Email:      "coimbatore@fzclean.in",
		GSTNumber:  "33AABCF2194M3Z3",
		UPIID:      "fzclean.cbe@ybl",
		Bank: &BankDetails{
			AccountName:   "FZ Clean Coimbatore",
			AccountNumber: "50100234567913",
			IFSC:          "HDFC0000064",
			BankName:      "HDFC Bank, RS Puram",
		},
	},
}

// Default returns the flagship branch, used whenever a franchise id
// cannot be resolved.
func Default() Branch { return branches[0] }

// All returns a copy of the registry.
func All() []Branch {
	out := make([]Branch, len(branches))
	copy(out, branches)
	return out
}

// ByID resolves a franchise id to a branch. Matching is case
// insensitive: exact id first, then substring against id and name,
// then the default branch. It never fails.
func ByID(id string) Branch {
	q := strings.ToLower(strings.TrimSpace(id))
	if q == "" {
		return Default()
	}
	for _, b := range branches {
		if strings.ToLower(b.ID) == q {
			return b
		}
	}
	for _, b := range branches {
		if strings.Contains(strings.ToLower(b.ID), q) || strings.Contains(strings.ToLower(b.Name), q) {
			return b
		}
	}
	return Default()
}

// ByCode looks up a branch by its 3-letter code, as embedded in order
// numbers and transit ids.
func ByCode(code string) (Branch, bool) {
	c := strings.ToUpper(strings.TrimSpace(code))
	for _, b := range branches {
		if b.BranchCode == c {
			return b, true
		}
	}
	return Branch{}, false
}
