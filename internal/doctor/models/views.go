package models

// Filter selects which doctors the list view shows.
type Filter string

const (
	FilterVerified Filter = "verified"
	FilterAll      Filter = "all"
)

// SortColumn is a sortable list column.
type SortColumn string

const (
	SortFullName      SortColumn = "fullName"
	SortSpecialty     SortColumn = "specialty"
	SortClinicName    SortColumn = "clinicName"
	SortContactNumber SortColumn = "contactNumber"
	SortVerify        SortColumn = "verify"
	SortIsActive      SortColumn = "isActive"
	SortCreatedAt     SortColumn = "createdAt"
)

// IsValid reports whether c names a sortable column.
func (c SortColumn) IsValid() bool {
	switch c {
	case SortFullName, SortSpecialty, SortClinicName, SortContactNumber, SortVerify, SortIsActive, SortCreatedAt:
		return true
	}
	return false
}

// DefaultPageSize matches the directory table's page size.
const DefaultPageSize = 10

// MaxPageSize bounds pageSize query values.
const MaxPageSize = 100

// ListQuery is the parsed list view query.
type ListQuery struct {
	Filter   Filter
	Search   string
	Sort     SortColumn
	Desc     bool
	Page     int
	PageSize int
}

// DoctorRow is one list row with its derived badge.
type DoctorRow struct {
	Doctor
	InternationalReady bool `json:"internationalReady"`
}

// ListView is the list screen's view model.
type ListView struct {
	Rows          []DoctorRow `json:"rows"`
	VerifiedCount int         `json:"verifiedCount"`
	TotalCount    int         `json:"totalCount"`
	MatchedCount  int         `json:"matchedCount"`
	Filter        Filter      `json:"filter"`
	Page          int         `json:"page"`
	PageSize      int         `json:"pageSize"`
	TotalPages    int         `json:"totalPages"`
}

// DetailView is the detail screen's view model.
type DetailView struct {
	Doctor             Doctor `json:"doctor"`
	InternationalReady bool   `json:"internationalReady"`
	TelemedicineReady  bool   `json:"telemedicineReady"`
	NeedsVerification  bool   `json:"needsVerification"`
}

// SpecialtyCount is one bar of the specialty histogram.
type SpecialtyCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// TourismSpecialty is a medical-tourism specialty present in the directory.
type TourismSpecialty struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Demand      string `json:"demand"`
	Growth      string `json:"growth"`
	DoctorCount int    `json:"doctorCount"`
}

// Dashboard is the overview screen's view model.
type Dashboard struct {
	Total              int                `json:"total"`
	Verified           int                `json:"verified"`
	Pending            int                `json:"pending"`
	Active             int                `json:"active"`
	TelemedicineReady  int                `json:"telemedicineReady"`
	InternationalReady int                `json:"internationalReady"`
	Specialties        []SpecialtyCount   `json:"specialties"`
	TourismSpecialties []TourismSpecialty `json:"tourismSpecialties"`
	RecentDoctors      []Doctor           `json:"recentDoctors"`
	UnverifiedDoctors  []Doctor           `json:"unverifiedDoctors"`
}
