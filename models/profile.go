package models

// ProfileRecord represents one provider profile scraped from a detail page
type ProfileRecord struct {
	Name                string           `json:"name"`
	Biography           string           `json:"biography"`
	Phone               string           `json:"phone number"`
	ProfileURL          string           `json:"profile link"` // Identity key, always set
	ImageURL            string           `json:"Profile Image"`
	Profession          string           `json:"profession"`
	AverageRating       string           `json:"average_rating"` // Display text, not parsed
	Experience          string           `json:"experience"`
	TotalRatings        int              `json:"total_ratings,string"`
	ConditionsTreated   []string         `json:"conditions_treated"`
	ProceduresPerformed []string         `json:"procedures_performed"`
	Credentials         CredentialBlock  `json:"education_certifications"`
	Locations           []LocationRecord `json:"locations"`
	GoogleMapsURL       string           `json:"first_location_google_maps"`
	Reviews             []ReviewRecord   `json:"reviews"`
}

// LocationRecord represents one practice location of a provider
type LocationRecord struct {
	Address string `json:"address"` // Clinic name and street address
	Phone   string `json:"phone"`
}

// ReviewRecord represents a single patient review
type ReviewRecord struct {
	Rating  string `json:"rating"`
	Comment string `json:"comment"`
	Date    string `json:"date"`
}

// CredentialBlock groups the credential sub-lists of a profile
type CredentialBlock struct {
	Licenses       []License   `json:"Medical License"`
	Certifications []string    `json:"Certifications"`
	Education      []Education `json:"Education & Training"`
}

// License represents a medical license entry
type License struct {
	License string `json:"license"`
	Status  string `json:"status"`
}

// Education represents an education or training entry
type Education struct {
	School string `json:"school"`
	Year   string `json:"year"`
}

// AggregateResult is the ordered collection of profiles produced by one run
type AggregateResult []ProfileRecord

// NewProfileRecord returns a record with the identity key set and every list
// initialized, so an otherwise empty record still encodes as empty arrays
func NewProfileRecord(profileURL string) ProfileRecord {
	return ProfileRecord{
		ProfileURL:          profileURL,
		ConditionsTreated:   []string{},
		ProceduresPerformed: []string{},
		Credentials: CredentialBlock{
			Licenses:       []License{},
			Certifications: []string{},
			Education:      []Education{},
		},
		Locations: []LocationRecord{},
		Reviews:   []ReviewRecord{},
	}
}
