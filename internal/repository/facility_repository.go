package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/iliyamo/facility-reservation/internal/model"
)

// FacilityRepo reads facilities from the CMS.  Facilities are read-only
// for this service.
type FacilityRepo struct {
	cms *CMSClient
}

// NewFacilityRepo returns a FacilityRepo using cms.
func NewFacilityRepo(cms *CMSClient) *FacilityRepo { return &FacilityRepo{cms: cms} }

// GetByID loads one facility with its equipment.  ErrFacilityNotFound is
// returned when the CMS has no such facility.
func (r *FacilityRepo) GetByID(ctx context.Context, id int64) (model.Facility, error) {
	q := url.Values{}
	q.Set("populate", "*")
	env, err := r.cms.doJSON(ctx, http.MethodGet, "/api/facilities/"+strconv.FormatInt(id, 10), q, nil)
	if isStatus(err, http.StatusNotFound) {
		return model.Facility{}, ErrFacilityNotFound
	}
	if err != nil {
		return model.Facility{}, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return model.Facility{}, ErrFacilityNotFound
	}
	f, err := normalizeFacility(env.Data)
	if err != nil {
		return model.Facility{}, err
	}
	if f.ID == 0 {
		return model.Facility{}, fmt.Errorf("%w: facility without id", ErrUpstream)
	}
	return f, nil
}
