package authorization

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

// NewEnforcer loads policies from the casbin_rule table and makes sure the
// built-in role grants exist.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	return newEnforcer(adapter)
}

func newEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{RoleAdmin, ObjectCategory, "*"},
		{RoleAdmin, ObjectRateItem, "*"},
		{RoleAdmin, ObjectActivationCode, "*"},
		{RoleAdmin, ObjectNote, "*"},
		{RoleAdmin, ObjectAuditLog, "*"},

		// operators keep the catalog current but never touch codes
		{RoleOperator, ObjectCategory, ActionCreate},
		{RoleOperator, ObjectCategory, ActionUpdate},
		{RoleOperator, ObjectCategory, ActionDelete},
		{RoleOperator, ObjectRateItem, ActionCreate},
		{RoleOperator, ObjectRateItem, ActionUpdate},
		{RoleOperator, ObjectRateItem, ActionDelete},
		{RoleOperator, ObjectNote, ActionView},
		{RoleOperator, ObjectNote, ActionCreate},
		{RoleOperator, ObjectNote, ActionUpdate},
		{RoleOperator, ObjectNote, ActionDelete},
	}
	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	groupings := [][]string{
		{SubjectAdmin, RoleAdmin},
		{SubjectOperator, RoleOperator},
	}
	for _, g := range groupings {
		has, err := enforcer.HasGroupingPolicy(g)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddGroupingPolicy(g); err != nil {
			return err
		}
	}
	return nil
}
