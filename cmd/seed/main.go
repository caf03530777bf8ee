package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"go-taskhub/internal/config"
	"go-taskhub/internal/database"
	common_models "go-taskhub/internal/common/models"
	"go-taskhub/internal/features/permgroup"
	"go-taskhub/internal/features/policy"
	"go-taskhub/internal/features/role"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal(err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.DBName)
	mongoDB := &database.MongodbDB{DB: db}

	fmt.Println("Seeding authorization defaults...")

	// 1. Permission groups
	groups := []permgroup.PermissionGroup{
		{
			Name:        "project-basics",
			Description: "Everyday project work",
			Permissions: []string{"canViewProjects", "canCreateProject", "canComment"},
		},
		{
			Name:        "task-editing",
			Description: "Task mutation rights",
			Permissions: []string{"canEditTasks", "canEditDates", "canAssignTasks"},
		},
		{
			Name:        "task-cleanup",
			Description: "Destructive task operations",
			Permissions: []string{"canDeleteTasks", "canArchiveProjects"},
		},
		{
			Name:        "workspace-administration",
			Description: "Workspace governance",
			Permissions: []string{"canManageRoles", "canManagePolicies", "canManageMembers"},
		},
	}

	groupCol := mongoDB.DB.Collection("permission_groups")
	groupIDs := map[string]primitive.ObjectID{}

	for _, g := range groups {
		if count, _ := groupCol.CountDocuments(ctx, bson.M{"name": g.Name}); count == 0 {
			g.ID = primitive.NewObjectID()
			g.Version = 1
			g.CreatedAt = time.Now()
			g.UpdatedAt = time.Now()
			if _, err := groupCol.InsertOne(ctx, g); err != nil {
				log.Printf("Failed to create permission group %s: %v", g.Name, err)
				continue
			}
			fmt.Printf("Created permission group: %s\n", g.Name)
			groupIDs[g.Name] = g.ID
		} else {
			fmt.Printf("Permission group %s already exists\n", g.Name)
			var existing permgroup.PermissionGroup
			groupCol.FindOne(ctx, bson.M{"name": g.Name}).Decode(&existing)
			groupIDs[g.Name] = existing.ID
		}
	}

	// 2. Policies
	policies := []policy.Policy{
		{
			Name:     "deny-archived-project-edits",
			Effect:   common_models.EffectDeny,
			Resource: "task",
			Action:   "*",
			Condition: &common_models.ConditionGroup{
				Rules: []common_models.ConditionRule{
					{Field: "resource.project_status", Operator: "eq", Value: "archived", Type: common_models.RuleTypeStatic},
				},
			},
		},
		{
			Name:     "allow-own-task-edits",
			Effect:   common_models.EffectAllow,
			Resource: "task",
			Action:   "update",
			Condition: &common_models.ConditionGroup{
				Rules: []common_models.ConditionRule{
					{Field: "resource.owner_id", Operator: "eq", Value: "$subject.user_id", Type: common_models.RuleTypeVariable},
				},
			},
		},
	}

	policyCol := mongoDB.DB.Collection("policies")
	policyIDs := map[string]primitive.ObjectID{}

	for _, p := range policies {
		if count, _ := policyCol.CountDocuments(ctx, bson.M{"name": p.Name, "workspace_id": nil}); count == 0 {
			p.ID = primitive.NewObjectID()
			p.Version = 1
			p.CreatedAt = time.Now()
			p.UpdatedAt = time.Now()
			if _, err := policyCol.InsertOne(ctx, p); err != nil {
				log.Printf("Failed to create policy %s: %v", p.Name, err)
				continue
			}
			fmt.Printf("Created policy: %s\n", p.Name)
			policyIDs[p.Name] = p.ID
		} else {
			fmt.Printf("Policy %s already exists\n", p.Name)
			var existing policy.Policy
			policyCol.FindOne(ctx, bson.M{"name": p.Name, "workspace_id": nil}).Decode(&existing)
			policyIDs[p.Name] = existing.ID
		}
	}

	// 3. Roles: admin flag is explicit, inheritance Editor -> Senior Editor
	roleCol := mongoDB.DB.Collection("roles")

	ensureRole := func(r role.Role) primitive.ObjectID {
		if count, _ := roleCol.CountDocuments(ctx, bson.M{"name": r.Name, "workspace_id": nil}); count > 0 {
			fmt.Printf("Role %s already exists\n", r.Name)
			var existing role.Role
			roleCol.FindOne(ctx, bson.M{"name": r.Name, "workspace_id": nil}).Decode(&existing)
			return existing.ID
		}
		r.ID = primitive.NewObjectID()
		r.Version = 1
		r.CreatedAt = time.Now()
		r.UpdatedAt = time.Now()
		if r.PermissionGroupIDs == nil {
			r.PermissionGroupIDs = []primitive.ObjectID{}
		}
		if r.PolicyIDs == nil {
			r.PolicyIDs = []primitive.ObjectID{}
		}
		if _, err := roleCol.InsertOne(ctx, r); err != nil {
			log.Printf("Failed to create role %s: %v", r.Name, err)
			return primitive.NilObjectID
		}
		fmt.Printf("Created role: %s\n", r.Name)
		return r.ID
	}

	ensureRole(role.Role{
		Name:         "Workspace Owner",
		Description:  "Unrestricted access, bypasses all checks",
		IsSystem:     true,
		IsSuperAdmin: true,
	})

	ensureRole(role.Role{
		Name:               "Administrator",
		Description:        "Workspace governance without super-admin bypass",
		IsSystem:           true,
		PermissionGroupIDs: []primitive.ObjectID{groupIDs["workspace-administration"]},
	})

	editorID := ensureRole(role.Role{
		Name:               "Editor",
		Description:        "Creates and edits project content",
		PermissionGroupIDs: []primitive.ObjectID{groupIDs["project-basics"], groupIDs["task-editing"]},
		PolicyIDs:          []primitive.ObjectID{policyIDs["deny-archived-project-edits"], policyIDs["allow-own-task-edits"]},
	})

	if editorID != primitive.NilObjectID {
		ensureRole(role.Role{
			Name:               "Senior Editor",
			Description:        "Editor plus destructive task operations",
			ParentRoleID:       &editorID,
			PermissionGroupIDs: []primitive.ObjectID{groupIDs["task-cleanup"]},
		})
	}

	fmt.Println("Seeding complete.")
}
