package appstore

import "time"

// AccessTypeOngoing is the access type of a continuously generated analytics report request.
const AccessTypeOngoing = "ONGOING"

// Resource is one JSON:API resource object with typed attributes.
type Resource[A any] struct {
	Type       string `json:"type"`
	ID         string `json:"id"`
	Attributes A      `json:"attributes"`
}

// Links carries JSON:API pagination links.
type Links struct {
	Self string `json:"self,omitempty"`
	Next string `json:"next,omitempty"`
}

// ListDocument is a JSON:API collection response.
type ListDocument[A any] struct {
	Data  []Resource[A] `json:"data"`
	Links Links         `json:"links"`
}

// Document is a JSON:API single-resource response.
type Document[A any] struct {
	Data Resource[A] `json:"data"`
}

type ReportRequestAttributes struct {
	AccessType             string `json:"accessType"`
	StoppedDueToInactivity bool   `json:"stoppedDueToInactivity,omitempty"`
}

type ReportAttributes struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type InstanceAttributes struct {
	Granularity    string `json:"granularity,omitempty"`
	ProcessingDate string `json:"processingDate,omitempty"`
	PeriodEnd      string `json:"periodEnd,omitempty"`
}

type SegmentAttributes struct {
	URL         string `json:"url"`
	Checksum    string `json:"checksum,omitempty"`
	SizeInBytes int64  `json:"sizeInBytes,omitempty"`
}

type (
	ReportRequest = Resource[ReportRequestAttributes]
	Report        = Resource[ReportAttributes]
	Instance      = Resource[InstanceAttributes]
	Segment       = Resource[SegmentAttributes]
)

// PeriodEndTime parses periodEnd. Missing or unparseable values map to the Unix epoch
// so that such instances order as the oldest.
func (a InstanceAttributes) PeriodEndTime() time.Time {
	if a.PeriodEnd == "" {
		return time.Unix(0, 0).UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, a.PeriodEnd); err == nil {
			return t.UTC()
		}
	}
	return time.Unix(0, 0).UTC()
}

// relationship bodies for create requests
type relationshipData struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type relationship struct {
	Data relationshipData `json:"data"`
}

// CreateReportRequestBody is the POST /analyticsReportRequests payload.
type CreateReportRequestBody struct {
	Data struct {
		Type          string                  `json:"type"`
		Attributes    ReportRequestAttributes `json:"attributes"`
		Relationships struct {
			App relationship `json:"app"`
		} `json:"relationships"`
	} `json:"data"`
}

// NewCreateReportRequestBody builds the create payload for one app and access type.
func NewCreateReportRequestBody(appID, accessType string) CreateReportRequestBody {
	var body CreateReportRequestBody
	body.Data.Type = "analyticsReportRequests"
	body.Data.Attributes.AccessType = accessType
	body.Data.Relationships.App = relationship{Data: relationshipData{Type: "apps", ID: appID}}
	return body
}
