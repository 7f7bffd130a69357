package service

import (
	"cmp"
	"slices"
	"strings"

	"medix/internal/doctor/models"
)

// recentLimit is how many new doctors the dashboard lists.
const recentLimit = 5

type tourismSpecialty struct {
	name, label, demand, growth string
}

// tourismSpecialties are matched against lower-cased directory specialties.
var tourismSpecialties = []tourismSpecialty{
	{"cardiology", "Cardiology", "High", "+32%"},
	{"dermatology", "Dermatology", "High", "+28%"},
	{"orthopedics", "Orthopedics", "Medium", "+18%"},
	{"ophthalmology", "Ophthalmology", "Medium", "+15%"},
	{"neurology", "Neurology", "Growing", "+22%"},
	{"general practitioner", "General Practice", "Steady", "+10%"},
	{"general physician", "General Physician", "Steady", "+10%"},
}

// NormalizeListQuery fills defaults and clamps out-of-range values.
func NormalizeListQuery(q models.ListQuery) models.ListQuery {
	if q.Filter != models.FilterAll {
		q.Filter = models.FilterVerified
	}
	if !q.Sort.IsValid() {
		q.Sort = ""
		q.Desc = false
	}
	if q.PageSize <= 0 {
		q.PageSize = models.DefaultPageSize
	}
	if q.PageSize > models.MaxPageSize {
		q.PageSize = models.MaxPageSize
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// BuildListView filters, searches, sorts and paginates doctors.
func BuildListView(doctors []models.Doctor, q models.ListQuery) models.ListView {
	q = NormalizeListQuery(q)

	view := models.ListView{
		Filter:     q.Filter,
		TotalCount: len(doctors),
		PageSize:   q.PageSize,
	}

	needle := strings.ToLower(q.Search)
	matched := make([]models.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.Verify {
			view.VerifiedCount++
		}
		if q.Filter == models.FilterVerified && !d.Verify {
			continue
		}
		if needle != "" && !matchesSearch(d, needle) {
			continue
		}
		matched = append(matched, d)
	}

	if q.Sort != "" {
		slices.SortStableFunc(matched, func(a, b models.Doctor) int {
			c := compareBy(q.Sort, a, b)
			if q.Desc {
				return -c
			}
			return c
		})
	}

	view.MatchedCount = len(matched)
	view.TotalPages = max(1, (len(matched)+q.PageSize-1)/q.PageSize)
	view.Page = min(q.Page, view.TotalPages)

	start := (view.Page - 1) * q.PageSize
	end := min(start+q.PageSize, len(matched))
	view.Rows = make([]models.DoctorRow, 0, end-start)
	for _, d := range matched[start:end] {
		view.Rows = append(view.Rows, models.DoctorRow{Doctor: d, InternationalReady: d.IsInternationalReady()})
	}
	return view
}

func matchesSearch(d models.Doctor, needle string) bool {
	return strings.Contains(strings.ToLower(d.FullName), needle) ||
		strings.Contains(strings.ToLower(d.Email), needle) ||
		strings.Contains(strings.ToLower(d.Specialty), needle)
}

func compareBy(col models.SortColumn, a, b models.Doctor) int {
	switch col {
	case models.SortFullName:
		return compareFold(a.FullName, b.FullName)
	case models.SortSpecialty:
		return compareFold(a.Specialty, b.Specialty)
	case models.SortClinicName:
		return compareFold(a.ClinicName, b.ClinicName)
	case models.SortContactNumber:
		return cmp.Compare(a.ContactNumber, b.ContactNumber)
	case models.SortVerify:
		return compareBool(a.Verify, b.Verify)
	case models.SortIsActive:
		return compareBool(a.IsActive, b.IsActive)
	case models.SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func compareFold(a, b string) int {
	return cmp.Compare(strings.ToLower(a), strings.ToLower(b))
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

// BuildDetailView derives the detail screen badges.
func BuildDetailView(d models.Doctor) models.DetailView {
	return models.DetailView{
		Doctor:             d,
		InternationalReady: d.IsInternationalReady(),
		TelemedicineReady:  d.IsTelemedicineReady(),
		NeedsVerification:  d.NeedsVerification(),
	}
}

// BuildDashboard computes the overview statistics.
func BuildDashboard(doctors []models.Doctor) models.Dashboard {
	dash := models.Dashboard{
		Total:              len(doctors),
		Specialties:        []models.SpecialtyCount{},
		TourismSpecialties: []models.TourismSpecialty{},
		UnverifiedDoctors:  []models.Doctor{},
	}

	bySpecialty := map[string]int{}
	for _, d := range doctors {
		if d.Verify {
			dash.Verified++
		} else {
			dash.UnverifiedDoctors = append(dash.UnverifiedDoctors, d)
		}
		if d.IsActive {
			dash.Active++
		}
		if d.IsTelemedicineReady() {
			dash.TelemedicineReady++
		}
		if d.IsInternationalReady() {
			dash.InternationalReady++
		}
		if d.Specialty != "" {
			bySpecialty[strings.ToLower(d.Specialty)]++
		}
	}
	dash.Pending = dash.Total - dash.Verified

	for name, count := range bySpecialty {
		dash.Specialties = append(dash.Specialties, models.SpecialtyCount{Name: name, Count: count})
	}
	slices.SortFunc(dash.Specialties, func(a, b models.SpecialtyCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	for _, ts := range tourismSpecialties {
		if n, ok := bySpecialty[ts.name]; ok {
			dash.TourismSpecialties = append(dash.TourismSpecialties, models.TourismSpecialty{
				Name:        ts.name,
				Label:       ts.label,
				Demand:      ts.demand,
				Growth:      ts.growth,
				DoctorCount: n,
			})
		}
	}

	newestFirst := func(a, b models.Doctor) int { return b.CreatedAt.Compare(a.CreatedAt) }
	recent := append([]models.Doctor{}, doctors...)
	slices.SortStableFunc(recent, newestFirst)
	dash.RecentDoctors = recent[:min(recentLimit, len(recent))]
	slices.SortStableFunc(dash.UnverifiedDoctors, newestFirst)
	return dash
}
