package handlers

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/devbridge/dev-bridge-manager/internal/kanban"
	"github.com/devbridge/dev-bridge-manager/internal/models"
)

var registerValidators sync.Once

// RegisterValidators adds the domain validators to gin's binding engine.
// `priority` accepts the kanban priorities, `project_status` the project
// statuses and `assignment_role` the project member roles.
func RegisterValidators() {
	registerValidators.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("priority", func(fl validator.FieldLevel) bool {
			return kanban.Priority(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
			return models.ProjectStatus(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("assignment_role", func(fl validator.FieldLevel) bool {
			return models.AssignmentRole(fl.Field().String()).Valid()
		})
	})
}

// validationDetails lists the failed fields of a binding error, if it is one.
func validationDetails(err error) map[string]string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}
