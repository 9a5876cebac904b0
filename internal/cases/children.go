package cases

import (
	"context"

	"github.com/garnizeh/a11ymon/pkg/models"
	"github.com/garnizeh/a11ymon/pkg/repository"
)

// requireCase fails with models.ErrNotFound when the case does not exist.
func requireCase(ctx context.Context, r repository.CaseRepo, id int64) error {
	c, err := r.GetCase(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return models.ErrNotFound
	}
	return nil
}

func (s *Service) AddContact(ctx context.Context, caseID int64, c *models.Contact) (*models.Contact, error) {
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if err := requireCase(ctx, r, caseID); err != nil {
			return err
		}
		c.CaseID = caseID
		_, err := r.CreateContact(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateContact(ctx context.Context, caseID, id int64, mutate func(*models.Contact) error) (*models.Contact, error) {
	var out *models.Contact
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		c, err := r.GetContact(ctx, caseID, id)
		if err != nil {
			return err
		}
		if c == nil {
			return models.ErrNotFound
		}
		if err := mutate(c); err != nil {
			return err
		}
		c.ID, c.CaseID = id, caseID
		if !c.Preferred.Valid() {
			return &models.ValidationError{Message: "invalid preferred value", Fields: []string{"preferred"}}
		}
		if err := r.UpdateContact(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) ListContacts(ctx context.Context, caseID int64) ([]models.Contact, error) {
	if err := requireCase(ctx, s.store, caseID); err != nil {
		return nil, err
	}
	return s.store.ListContacts(ctx, caseID)
}

// AddCorrespondence numbers the new item densely within its case.
func (s *Service) AddCorrespondence(ctx context.Context, caseID int64, c *models.EqualityBodyCorrespondence) (*models.EqualityBodyCorrespondence, error) {
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if err := requireCase(ctx, r, caseID); err != nil {
			return err
		}
		c.CaseID = caseID
		_, err := r.CreateCorrespondence(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCorrespondence(ctx context.Context, caseID, id int64, mutate func(*models.EqualityBodyCorrespondence) error) (*models.EqualityBodyCorrespondence, error) {
	var out *models.EqualityBodyCorrespondence
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		c, err := r.GetCorrespondence(ctx, caseID, id)
		if err != nil {
			return err
		}
		if c == nil {
			return models.ErrNotFound
		}
		if err := mutate(c); err != nil {
			return err
		}
		c.ID, c.CaseID = id, caseID
		if !c.Type.Valid() || !c.Status.Valid() {
			return &models.ValidationError{Message: "invalid correspondence type or status", Fields: []string{"type", "status"}}
		}
		if err := r.UpdateCorrespondence(ctx, c); err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) ListCorrespondence(ctx context.Context, caseID int64) ([]models.EqualityBodyCorrespondence, error) {
	if err := requireCase(ctx, s.store, caseID); err != nil {
		return nil, err
	}
	return s.store.ListCorrespondence(ctx, caseID)
}

func (s *Service) AddRetest(ctx context.Context, caseID int64, rt *models.Retest) (*models.Retest, error) {
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		if err := requireCase(ctx, r, caseID); err != nil {
			return err
		}
		rt.CaseID = caseID
		_, err := r.CreateRetest(ctx, rt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (s *Service) UpdateRetest(ctx context.Context, caseID, id int64, mutate func(*models.Retest) error) (*models.Retest, error) {
	var out *models.Retest
	err := s.store.InTx(ctx, func(r repository.Repos) error {
		rt, err := r.GetRetest(ctx, caseID, id)
		if err != nil {
			return err
		}
		if rt == nil {
			return models.ErrNotFound
		}
		if err := mutate(rt); err != nil {
			return err
		}
		rt.ID, rt.CaseID = id, caseID
		if !rt.RetestComplianceState.Valid() {
			return &models.ValidationError{Message: "invalid retest compliance state", Fields: []string{"retest_compliance_state"}}
		}
		if err := r.UpdateRetest(ctx, rt); err != nil {
			return err
		}
		out = rt
		return nil
	})
	return out, err
}

func (s *Service) ListRetests(ctx context.Context, caseID int64) ([]models.Retest, error) {
	if err := requireCase(ctx, s.store, caseID); err != nil {
		return nil, err
	}
	return s.store.ListRetests(ctx, caseID)
}
