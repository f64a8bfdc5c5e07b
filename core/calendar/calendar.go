// Package calendar merges the class schedules of a group's members into one laid-out week.
package calendar

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/freetime/core"
	"github.com/trezcool/freetime/core/group"
	"github.com/trezcool/freetime/core/layout"
	"github.com/trezcool/freetime/core/profile"
	"github.com/trezcool/freetime/core/schedule"
)

// PaletteSize is the number of member colours.
const PaletteSize = 8

const cacheKeyPrefix = "calendar"

type (
	// Slot is the payload of a laid-out class.
	Slot struct {
		ScheduleID string `json:"schedule_id"`
		UserID     string `json:"user_id"`
		Label      string `json:"label"`
		ClassName  string `json:"class_name"`
		StartTime  string `json:"start_time"`
		EndTime    string `json:"end_time"`
		ColorIndex int    `json:"color_index"`
	}

	Entry struct {
		Slot
		Column  int          `json:"column"`
		Columns int          `json:"columns"`
		Frame   layout.Frame `json:"frame"`
	}

	Day struct {
		Index   int     `json:"index"`
		Name    string  `json:"name"`
		Short   string  `json:"short"`
		Entries []Entry `json:"entries"`
	}

	MemberLegend struct {
		UserID     string `json:"user_id"`
		Label      string `json:"label"`
		AvatarURL  string `json:"avatar_url"`
		Role       string `json:"role"`
		ColorIndex int    `json:"color_index"`
		Hidden     bool   `json:"hidden"`
	}

	Week struct {
		GroupID string                  `json:"group_id"`
		Grid    layout.Grid             `json:"grid"`
		Hours   []int                   `json:"hours"`
		Days    [layout.DaysPerWeek]Day `json:"days"`
		Members []MemberLegend          `json:"members"`
	}

	// Cache stores computed weeks. Implementations report misses and failures alike as not found.
	Cache interface {
		Get(ctx context.Context, key string, dst interface{}) bool
		Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
		Delete(ctx context.Context, pattern string)
	}

	Service interface {
		// Build lays out the classes of every member of the group except the hidden ones.
		// viewerID must be a member of the group.
		Build(ctx context.Context, viewerID, groupID string, hidden ...string) (Week, error)
		// Invalidate drops every cached week of the group.
		Invalidate(ctx context.Context, groupID string)
		// InvalidateForUser drops the cached weeks of every group the user belongs to.
		InvalidateForUser(ctx context.Context, userID string)
	}

	service struct {
		groupSvc    group.Service
		scheduleSvc schedule.Service
		profileSvc  profile.Service
		cache       Cache
		ttl         time.Duration
		grid        layout.Grid
		logger      core.Logger
	}
)

var _ Service = (*service)(nil)

// NewService returns a calendar Service. cache may be nil.
func NewService(
	groupSvc group.Service,
	scheduleSvc schedule.Service,
	profileSvc profile.Service,
	cache Cache,
	conf *core.Config,
	logger core.Logger,
) Service {
	return &service{
		groupSvc:    groupSvc,
		scheduleSvc: scheduleSvc,
		profileSvc:  profileSvc,
		cache:       cache,
		ttl:         conf.Cache.CalendarTTL,
		grid:        layout.DefaultGrid,
		logger:      logger,
	}
}

func (svc *service) Build(ctx context.Context, viewerID, groupID string, hidden ...string) (Week, error) {
	if _, err := svc.groupSvc.Membership(ctx, viewerID, groupID); err != nil {
		return Week{}, err
	}

	hiddenSet := make(map[string]bool, len(hidden))
	for _, id := range hidden {
		hiddenSet[id] = true
	}

	key := cacheKey(groupID, hiddenSet)
	var week Week
	if svc.cache != nil && svc.cache.Get(ctx, key, &week) {
		return week, nil
	}

	members, err := svc.groupSvc.Members(ctx, viewerID, groupID)
	if err != nil {
		return Week{}, err
	}
	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}
	profiles, err := svc.profileSvc.ProfilesFor(ctx, memberIDs...)
	if err != nil {
		return Week{}, errors.Wrap(err, "loading member profiles")
	}

	visible := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if !hiddenSet[id] {
			visible = append(visible, id)
		}
	}
	schedules, err := svc.scheduleSvc.QueryForUsers(ctx, visible...)
	if err != nil {
		return Week{}, errors.Wrap(err, "loading member schedules")
	}

	week = svc.arrange(groupID, members, hiddenSet, profiles, schedules)
	if svc.cache != nil {
		svc.cache.Set(ctx, key, week, svc.ttl)
	}
	return week, nil
}

func (svc *service) Invalidate(ctx context.Context, groupID string) {
	if svc.cache != nil {
		svc.cache.Delete(ctx, fmt.Sprintf("%s:%s:*", cacheKeyPrefix, groupID))
	}
}

func (svc *service) InvalidateForUser(ctx context.Context, userID string) {
	if svc.cache == nil {
		return
	}
	groups, err := svc.groupSvc.QueryForUser(ctx, userID)
	if err != nil {
		svc.logger.Error("calendar.InvalidateForUser: querying groups", err, map[string]interface{}{"user_id": userID})
		return
	}
	for _, g := range groups {
		svc.Invalidate(ctx, g.ID)
	}
}

// ColorIndexes assigns each user the position of its ID among the sorted IDs, modulo PaletteSize.
func ColorIndexes(userIDs []string) map[string]int {
	sorted := make([]string, len(userIDs))
	copy(sorted, userIDs)
	sort.Strings(sorted)

	colors := make(map[string]int, len(sorted))
	for i, id := range sorted {
		colors[id] = i % PaletteSize
	}
	return colors
}

func (svc *service) arrange(
	groupID string,
	members []group.Member,
	hidden map[string]bool,
	profiles map[string]profile.Profile,
	schedules []schedule.Schedule,
) Week {
	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.UserID
	}
	colors := ColorIndexes(memberIDs)

	week := Week{
		GroupID: groupID,
		Grid:    svc.grid,
		Hours:   svc.grid.HourLabels(),
		Members: make([]MemberLegend, 0, len(members)),
	}
	for _, m := range members {
		p := profiles[m.UserID]
		p.UserID = m.UserID
		week.Members = append(week.Members, MemberLegend{
			UserID:     m.UserID,
			Label:      p.Label(),
			AvatarURL:  p.AvatarURL,
			Role:       m.Role,
			ColorIndex: colors[m.UserID],
			Hidden:     hidden[m.UserID],
		})
	}

	blocks := make([]layout.Block[Slot], 0, len(schedules))
	days := make(map[string]int, len(schedules))
	for _, s := range schedules {
		if hidden[s.UserID] {
			continue
		}
		start, err := layout.ParseClock(s.StartTime)
		if err != nil {
			svc.logger.Warn("calendar.arrange: bad start time", err, map[string]interface{}{"schedule_id": s.ID})
			continue
		}
		end, err := layout.ParseClock(s.EndTime)
		if err != nil {
			svc.logger.Warn("calendar.arrange: bad end time", err, map[string]interface{}{"schedule_id": s.ID})
			continue
		}
		p := profiles[s.UserID]
		p.UserID = s.UserID
		blocks = append(blocks, layout.Block[Slot]{
			ID:    s.ID,
			Start: start,
			End:   end,
			Payload: Slot{
				ScheduleID: s.ID,
				UserID:     s.UserID,
				Label:      p.Label(),
				ClassName:  s.ClassName,
				StartTime:  s.StartTime,
				EndTime:    s.EndTime,
				ColorIndex: colors[s.UserID],
			},
		})
		days[s.ID] = s.DayOfWeek
	}

	// equal starts are laid out by ID so the result does not depend on fetch order
	sort.SliceStable(blocks, func(i, j int) bool {
		bi, bj := blocks[i], blocks[j]
		if days[bi.ID] != days[bj.ID] {
			return days[bi.ID] < days[bj.ID]
		}
		if bi.Start != bj.Start {
			return bi.Start < bj.Start
		}
		return bi.ID < bj.ID
	})

	arranged := layout.ArrangeWeek(blocks, func(b layout.Block[Slot]) int { return days[b.ID] })
	for d := range week.Days {
		day := Day{
			Index:   d,
			Name:    schedule.DayNames[d],
			Short:   schedule.DayShortNames[d],
			Entries: make([]Entry, 0, len(arranged[d])),
		}
		for _, p := range arranged[d] {
			frame, ok := layout.PlacementFrame(svc.grid, p)
			if !ok {
				continue
			}
			day.Entries = append(day.Entries, Entry{
				Slot:    p.Payload,
				Column:  p.Column,
				Columns: p.Columns,
				Frame:   frame,
			})
		}
		week.Days[d] = day
	}
	return week
}

// cacheKey identifies a week by group and hidden members. Entries are dropped by Invalidate when
// memberships, profiles or schedules change.
func cacheKey(groupID string, hidden map[string]bool) string {
	ids := make([]string, 0, len(hidden))
	for id := range hidden {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	for _, id := range ids {
		fmt.Fprintf(h, "%s\n", id)
	}
	return fmt.Sprintf("%s:%s:%s", cacheKeyPrefix, groupID, hex.EncodeToString(h.Sum(nil))[:16])
}
