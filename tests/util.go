package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/schedule"
	"github.com/trezcool/freetime/core/user"
	logsvc "github.com/trezcool/freetime/services/logger"
)

// NewLogger returns a logger that discards its output and never reports to Rollbar.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", 0), conf)
	logger.Enable(false)
	return logger
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	email, pwd string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Email:     email,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateSchedule(
	t *testing.T,
	repo schedule.Repository,
	userID, className string,
	day int,
	start, end string,
) schedule.Schedule {
	s, err := repo.CreateSchedule(context.Background(), schedule.Schedule{
		UserID:    userID,
		ClassName: className,
		DayOfWeek: day,
		StartTime: start,
		EndTime:   end,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSchedule() failed: %v", err)
	}
	return s
}

// CreateGroup stores a group administered by adminID. memberIDs join in order, one second apart.
func CreateGroup(
	t *testing.T,
	repo group.Repository,
	name, inviteCode, adminID string,
	memberIDs ...string,
) group.Group {
	ctx := context.Background()
	now := time.Now().UTC()

	g, err := repo.CreateGroup(ctx, group.Group{
		Name:       name,
		InviteCode: inviteCode,
		CreatedBy:  adminID,
		CreatedAt:  now,
	}, group.Member{UserID: adminID, Role: group.RoleAdmin, JoinedAt: now})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	for i, id := range memberIDs {
		m := group.Member{
			GroupID:  g.ID,
			UserID:   id,
			Role:     group.RoleMember,
			JoinedAt: now.Add(time.Duration(i+1) * time.Second),
		}
		if err = repo.AddMember(ctx, m); err != nil {
			t.Fatalf("CreateGroup() failed adding member: %v", err)
		}
	}
	g, err = repo.GetGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}
