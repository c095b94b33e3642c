package handler

import "reconciler/internal/contact/models"

// ContactResponse wraps a cluster view the way clients expect it.
type ContactResponse struct {
	Contact *models.ClusterView `json:"contact"`
}
