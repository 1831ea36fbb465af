package domain

import "github.com/google/uuid"

func (f *DemandForecast) OwnerOrg() uuid.UUID   { return f.OrgID }
func (s *SupplyCommitment) OwnerOrg() uuid.UUID { return s.OrgID }
func (w *PlanningWeek) OwnerOrg() uuid.UUID     { return w.OrgID }
func (c *City) OwnerOrg() uuid.UUID             { return c.OrgID }
func (p *Party) OwnerOrg() uuid.UUID            { return p.OrgID }
func (t *TruckType) OwnerOrg() uuid.UUID        { return t.OrgID }
func (d *DemandCategory) OwnerOrg() uuid.UUID   { return d.OrgID }
