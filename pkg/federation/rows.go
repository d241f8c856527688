package federation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentstation/servicemap/pkg/providers"
)

// Catalog A (company) columns.
const (
	ColCompanyID       = "company_id"
	ColCompanyName     = "company_name"
	ColBusinessType    = "business_type"
	ColServiceRegions  = "service_regions"
	ColHourlyRate      = "avg_hourly_rate"
	ColSpecializations = "specialization_areas"
	ColTotalReviews    = "total_reviews"
)

// Catalog B (employee) columns.
const (
	ColEmployeeID       = "employee_id"
	ColName             = "name"
	ColUserName         = "user_name"
	ColSpecialization   = "specialization"
	ColCertification    = "certification_level"
	ColExperienceYears  = "experience_years"
	ColCompletedOrders  = "total_completed_orders"
	ColBio              = "bio"
	ColCostPerHour      = "avg_cost_per_hour"
	ColPreferredRegions = "preferred_regions"
	ColAvailability     = "availability_status"
)

// Columns shared by both catalogs.
const (
	ColRating        = "rating"
	ColDescription   = "description"
	ColPhone         = "phone"
	ColEmail         = "email"
	ColEmergency     = "emergency_service"
	ColResponseHours = "avg_response_time_hours"
)

// MapCompanyRow translates a catalog A row into an organization record.
// Only names and units are translated.
func MapCompanyRow(r Row) providers.Provider {
	return providers.Provider{
		SourceID:          r.String(ColCompanyID),
		Origin:            providers.CatalogA,
		DisplayName:       strings.TrimSpace(r.String(ColCompanyName)),
		Kind:              providers.Organization,
		Rating:            r.Float(ColRating),
		HourlyCost:        r.OptFloat(ColHourlyRate),
		RegionTags:        providers.SplitTags(r.String(ColServiceRegions)),
		Specialization:    r.String(ColSpecializations),
		Category:          r.String(ColBusinessType),
		VolumeMetric:      r.Int(ColTotalReviews),
		CertificationTier: providers.CertificationNone,
		SupportsEmergency: r.Bool(ColEmergency),
		ResponseHours:     r.OptFloat(ColResponseHours),
		Description:       r.String(ColDescription),
		Phone:             r.String(ColPhone),
		Email:             r.String(ColEmail),
	}
}

// MapWorkerRow translates a catalog B row into an individual worker record.
// The worker name is read from "name", or from "user_name" when the catalog
// joins it from a user table.
func MapWorkerRow(r Row) providers.Provider {
	name := r.String(ColName)
	if strings.TrimSpace(name) == "" {
		name = r.String(ColUserName)
	}
	specialization := r.String(ColSpecialization)
	category, _, _ := strings.Cut(specialization, ",")

	return providers.Provider{
		SourceID:          r.String(ColEmployeeID),
		Origin:            providers.CatalogB,
		DisplayName:       strings.TrimSpace(name),
		Kind:              providers.IndividualWorker,
		Rating:            r.Float(ColRating),
		HourlyCost:        r.OptFloat(ColCostPerHour),
		RegionTags:        providers.SplitTags(r.String(ColPreferredRegions)),
		Specialization:    specialization,
		Category:          strings.TrimSpace(category),
		VolumeMetric:      r.Int(ColCompletedOrders),
		ExperienceYears:   r.OptFloat(ColExperienceYears),
		CertificationTier: providers.ParseCertification(r.String(ColCertification)),
		SupportsEmergency: r.Bool(ColEmergency),
		ResponseHours:     r.OptFloat(ColResponseHours),
		Availability:      r.String(ColAvailability),
		Description:       r.String(ColBio),
		Phone:             r.String(ColPhone),
		Email:             r.String(ColEmail),
	}
}

// String returns the column as text. Missing and NULL columns yield "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Float returns the column as a number, or 0 when it is missing or not numeric.
func (r Row) Float(col string) float64 {
	if v := r.OptFloat(col); v != nil {
		return *v
	}
	return 0
}

// OptFloat returns the column as a number, or nil when it is missing,
// NULL or not numeric.
func (r Row) OptFloat(col string) *float64 {
	var f float64
	switch v := r[col].(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string, []byte:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(r.String(col)), 64)
		if err != nil {
			return nil
		}
		f = parsed
	default:
		return nil
	}
	return &f
}

// Int returns the column as an integer, truncating fractional values.
func (r Row) Int(col string) int {
	return int(r.Float(col))
}

// Bool returns the column as a flag. Non-zero numbers and the strings
// "true", "yes", "y" and "1" are true.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case string, []byte:
		switch strings.ToLower(strings.TrimSpace(r.String(col))) {
		case "true", "yes", "y", "1", "t":
			return true
		}
		return false
	default:
		return r.Float(col) != 0
	}
}
