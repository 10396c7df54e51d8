package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	repository "github.com/willerob90/SubGames-Working/internal/adapters/repository"
	"github.com/willerob90/SubGames-Working/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func openStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustPick(t *testing.T, store *repository.SQLiteStore, cycleID, userID, creatorID string, now time.Time) {
	t.Helper()
	if _, err := store.UpsertPick(context.Background(), cycleID, userID, creatorID, now); err != nil {
		t.Fatalf("upsert pick: %v", err)
	}
}

func newSession(id, userID string, now time.Time) model.GameSession {
	return model.GameSession{
		ID:            id,
		UserID:        userID,
		GameType:      "whackAMole",
		Difficulty:    "normal",
		StartTime:     now,
		ExpiresAt:     now.Add(10 * time.Minute),
		ExpectedValue: 3,
	}
}

func TestSessions(t *testing.T) {
	Convey("Given an open store", t, func() {
		store := openStore(t)
		ctx := context.Background()
		now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)

		Convey("When creating and reading back a session", func() {
			So(store.CreateSession(ctx, newSession("s1", "user-1", now)), ShouldBeNil)

			got, err := store.GetSession(ctx, "s1")
			So(err, ShouldBeNil)
			So(got.UserID, ShouldEqual, "user-1")
			So(got.GameType, ShouldEqual, "whackAMole")
			So(got.Used, ShouldBeFalse)
			So(got.ExpiresAt.Sub(got.StartTime), ShouldEqual, 10*time.Minute)
		})

		Convey("When reading a missing session", func() {
			_, err := store.GetSession(ctx, "ghost")
			So(errors.Is(err, repository.ErrSessionNotFound), ShouldBeTrue)
		})

		Convey("When sweeping expired sessions", func() {
			So(store.CreateSession(ctx, newSession("fresh", "u", now)), ShouldBeNil)

			stale := newSession("stale", "u", now.Add(-time.Hour))
			stale.ExpiresAt = now.Add(-50 * time.Minute)
			So(store.CreateSession(ctx, stale), ShouldBeNil)

			// A used session past expiry must survive the sweep: its audit
			// value is the used flag itself.
			used := newSession("used", "u2", now.Add(-time.Hour))
			used.ExpiresAt = now.Add(-50 * time.Minute)
			So(store.CreateSession(ctx, used), ShouldBeNil)
			mustPick(t, store, "2026-08-25-18:00", "u2", "creator-a", now)
			_, err := store.CommitResult(ctx, commitParams("used", "u2", now))
			So(err, ShouldBeNil)

			n, err := store.DeleteExpiredSessions(ctx, now)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			_, err = store.GetSession(ctx, "stale")
			So(errors.Is(err, repository.ErrSessionNotFound), ShouldBeTrue)
			_, err = store.GetSession(ctx, "fresh")
			So(err, ShouldBeNil)
			_, err = store.GetSession(ctx, "used")
			So(err, ShouldBeNil)
		})
	})
}

func commitParams(sessionID, userID string, now time.Time) repository.CommitParams {
	return repository.CommitParams{
		SessionID:   sessionID,
		UserID:      userID,
		CycleID:     "2026-08-25-18:00",
		GameType:    "whackAMole",
		Difficulty:  "normal",
		Points:      3,
		ElapsedSecs: 12.5,
		ClientSecs:  12.0,
		Now:         now,
	}
}

func TestPicks(t *testing.T) {
	Convey("Given an open store", t, func() {
		store := openStore(t)
		ctx := context.Background()
		now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
		const cycleID = "2026-08-25-18:00"

		Convey("When a user picks a creator for the first time", func() {
			pick, err := store.UpsertPick(ctx, cycleID, "user-1", "creator-a", now)
			So(err, ShouldBeNil)
			So(pick.CreatorID, ShouldEqual, "creator-a")
			So(pick.PointsEarned, ShouldEqual, 0)
			So(pick.SwitchCount, ShouldEqual, 0)
			So(pick.LastSwitchedAt.IsZero(), ShouldBeTrue)

			Convey("Then the creator's leaderboard entry exists with one supporter", func() {
				entries, err := store.TopEntries(ctx, cycleID, 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].CreatorID, ShouldEqual, "creator-a")
				So(entries[0].TotalPoints, ShouldEqual, 0)
				So(entries[0].SupporterCount, ShouldEqual, 1)
			})

			Convey("And picking the same creator again changes nothing", func() {
				again, err := store.UpsertPick(ctx, cycleID, "user-1", "creator-a", now.Add(time.Minute))
				So(err, ShouldBeNil)
				So(again.SwitchCount, ShouldEqual, 0)

				entries, _ := store.TopEntries(ctx, cycleID, 10)
				So(entries[0].SupporterCount, ShouldEqual, 1)
			})

			Convey("And switching to another creator bumps the switch count", func() {
				switched, err := store.UpsertPick(ctx, cycleID, "user-1", "creator-b", now.Add(time.Hour))
				So(err, ShouldBeNil)
				So(switched.CreatorID, ShouldEqual, "creator-b")
				So(switched.SwitchCount, ShouldEqual, 1)
				So(switched.LastSwitchedAt.IsZero(), ShouldBeFalse)
				So(switched.PointsEarned, ShouldEqual, 0)
			})
		})

		Convey("When reading a missing pick", func() {
			_, err := store.GetPick(ctx, cycleID, "nobody")
			So(errors.Is(err, repository.ErrPickNotFound), ShouldBeTrue)
		})
	})
}

func TestCommitResult(t *testing.T) {
	Convey("Given a store with a session and a pick", t, func() {
		store := openStore(t)
		ctx := context.Background()
		now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
		const cycleID = "2026-08-25-18:00"

		So(store.CreateSession(ctx, newSession("s1", "user-1", now)), ShouldBeNil)
		mustPick(t, store, cycleID, "user-1", "creator-a", now)

		Convey("When committing a result", func() {
			receipt, err := store.CommitResult(ctx, commitParams("s1", "user-1", now))
			So(err, ShouldBeNil)
			So(receipt.CreatorID, ShouldEqual, "creator-a")
			So(receipt.Points, ShouldEqual, 3)
			So(receipt.NewSupporter, ShouldBeFalse) // already joined at pick time

			Convey("Then the session is spent", func() {
				gs, err := store.GetSession(ctx, "s1")
				So(err, ShouldBeNil)
				So(gs.Used, ShouldBeTrue)
			})

			Convey("Then pick, leaderboard and user stats all moved by the same amount", func() {
				pick, _ := store.GetPick(ctx, cycleID, "user-1")
				So(pick.PointsEarned, ShouldEqual, 3)

				entries, _ := store.TopEntries(ctx, cycleID, 10)
				So(entries[0].TotalPoints, ShouldEqual, 3)
				So(entries[0].SupporterCount, ShouldEqual, 1)

				stats, err := store.UserStats(ctx, "user-1")
				So(err, ShouldBeNil)
				So(stats.GamesPlayed, ShouldEqual, 1)
				So(stats.PointsEarned, ShouldEqual, 3)
			})

			Convey("Then an audit record was appended", func() {
				plays, err := store.RecentPlays(ctx, "user-1", 10)
				So(err, ShouldBeNil)
				So(plays, ShouldHaveLength, 1)
				So(plays[0].GameType, ShouldEqual, "whackAMole")
				So(plays[0].CreatorID, ShouldEqual, "creator-a")
				So(plays[0].Points, ShouldEqual, 3)
				So(plays[0].ElapsedSecs, ShouldEqual, 12.5)
			})

			Convey("And replaying the same session fails without touching the ledger", func() {
				_, err := store.CommitResult(ctx, commitParams("s1", "user-1", now))
				So(errors.Is(err, repository.ErrSessionAlreadyUsed), ShouldBeTrue)

				entries, _ := store.TopEntries(ctx, cycleID, 10)
				So(entries[0].TotalPoints, ShouldEqual, 3)
				pick, _ := store.GetPick(ctx, cycleID, "user-1")
				So(pick.PointsEarned, ShouldEqual, 3)
			})
		})

		Convey("When committing without a pick in the cycle", func() {
			So(store.CreateSession(ctx, newSession("s2", "user-2", now)), ShouldBeNil)
			p := commitParams("s2", "user-2", now)

			_, err := store.CommitResult(ctx, p)
			So(errors.Is(err, repository.ErrPickNotFound), ShouldBeTrue)

			Convey("Then the session stays unused so the client can retry after picking", func() {
				gs, _ := store.GetSession(ctx, "s2")
				So(gs.Used, ShouldBeFalse)
			})
		})

		Convey("When many sessions score for the same creator concurrently", func() {
			const players = 8
			for i := 0; i < players; i++ {
				id := string(rune('a' + i))
				So(store.CreateSession(ctx, newSession("sess-"+id, "player-"+id, now)), ShouldBeNil)
				mustPick(t, store, cycleID, "player-"+id, "creator-a", now)
			}

			var wg sync.WaitGroup
			errs := make(chan error, players)
			for i := 0; i < players; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id := string(rune('a' + i))
					_, err := store.CommitResult(ctx, commitParams("sess-"+id, "player-"+id, now))
					errs <- err
				}(i)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				So(err, ShouldBeNil)
			}

			Convey("Then no update is lost", func() {
				entries, _ := store.TopEntries(ctx, cycleID, 10)
				So(entries[0].TotalPoints, ShouldEqual, players*3)
				So(entries[0].SupporterCount, ShouldEqual, players+1)
			})
		})
	})
}

func TestLeaderboardConservation(t *testing.T) {
	Convey("Given several players scoring for two creators", t, func() {
		store := openStore(t)
		ctx := context.Background()
		now := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
		const cycleID = "2026-08-25-18:00"

		score := func(session, user, creator string, times int) {
			mustPick(t, store, cycleID, user, creator, now)
			for i := 0; i < times; i++ {
				id := session + "-" + string(rune('0'+i))
				So(store.CreateSession(ctx, newSession(id, user, now)), ShouldBeNil)
				_, err := store.CommitResult(ctx, commitParams(id, user, now))
				So(err, ShouldBeNil)
			}
		}

		score("sa", "user-1", "creator-a", 2)
		score("sb", "user-2", "creator-a", 3)
		score("sc", "user-3", "creator-b", 1)

		Convey("Then each entry equals the sum of its picks' earned points", func() {
			p1, _ := store.GetPick(ctx, cycleID, "user-1")
			p2, _ := store.GetPick(ctx, cycleID, "user-2")
			p3, _ := store.GetPick(ctx, cycleID, "user-3")

			entries, err := store.TopEntries(ctx, cycleID, 10)
			So(err, ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].CreatorID, ShouldEqual, "creator-a")
			So(entries[0].TotalPoints, ShouldEqual, p1.PointsEarned+p2.PointsEarned)
			So(entries[1].CreatorID, ShouldEqual, "creator-b")
			So(entries[1].TotalPoints, ShouldEqual, p3.PointsEarned)
		})
	})
}

func TestSettlement(t *testing.T) {
	Convey("Given a cycle with leaderboard entries", t, func() {
		store := openStore(t)
		ctx := context.Background()
		now := time.Date(2026, 8, 25, 17, 0, 0, 0, time.UTC)
		const cycleID = "2026-08-25-18:00"
		cycleStart := time.Date(2026, 8, 24, 18, 0, 0, 0, time.UTC)
		cycleEnd := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)

		So(store.UpsertCreator(ctx, model.Creator{
			ID: "creator-a", Name: "Ada", PhotoURL: "https://img/a.png", PromotionalURL: "https://ada.example",
		}), ShouldBeNil)

		score := func(user, creator, session string, at time.Time) {
			mustPick(t, store, cycleID, user, creator, at)
			So(store.CreateSession(ctx, newSession(session, user, at)), ShouldBeNil)
			p := commitParams(session, user, at)
			_, err := store.CommitResult(ctx, p)
			So(err, ShouldBeNil)
		}

		Convey("When one creator clearly leads", func() {
			score("user-1", "creator-a", "s1", now.Add(-2*time.Hour))
			score("user-2", "creator-a", "s2", now.Add(-time.Hour))
			score("user-3", "creator-b", "s3", now.Add(-90*time.Minute))

			w, created, err := store.SettleCycle(ctx, cycleID, cycleStart, cycleEnd, now, false)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(w.WinnerID, ShouldEqual, "creator-a")
			So(w.FinalScore, ShouldEqual, 6)
			So(w.SupporterCount, ShouldEqual, 2)
			So(w.WinnerName, ShouldEqual, "Ada")
			So(w.PromotionalURL, ShouldEqual, "https://ada.example")

			Convey("Then re-settling is a no-op returning the existing record", func() {
				again, created, err := store.SettleCycle(ctx, cycleID, cycleStart, cycleEnd, now.Add(time.Hour), false)
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again.WinnerID, ShouldEqual, "creator-a")
				So(again.AnnouncedAt.Equal(w.AnnouncedAt), ShouldBeTrue)
			})

			Convey("Then a forced re-settle rewrites the record", func() {
				later := now.Add(2 * time.Hour)
				again, created, err := store.SettleCycle(ctx, cycleID, cycleStart, cycleEnd, later, true)
				So(err, ShouldBeNil)
				So(created, ShouldBeTrue)
				So(again.AnnouncedAt.Equal(later), ShouldBeTrue)
			})

			Convey("Then GetWinner returns the settled record", func() {
				got, err := store.GetWinner(ctx, cycleID)
				So(err, ShouldBeNil)
				So(got.WinnerID, ShouldEqual, "creator-a")
				So(got.CycleEnd.Equal(cycleEnd), ShouldBeTrue)
			})
		})

		Convey("When two creators tie on points", func() {
			// creator-b reaches the shared score first.
			score("user-3", "creator-b", "s3", now.Add(-3*time.Hour))
			score("user-1", "creator-a", "s1", now.Add(-time.Hour))

			w, created, err := store.SettleCycle(ctx, cycleID, cycleStart, cycleEnd, now, false)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(w.WinnerID, ShouldEqual, "creator-b")
		})

		Convey("When the cycle has no entries", func() {
			_, _, err := store.SettleCycle(ctx, "2026-01-01-18:00", cycleStart, cycleEnd, now, false)
			So(errors.Is(err, repository.ErrNoEntries), ShouldBeTrue)

			_, err = store.GetWinner(ctx, "2026-01-01-18:00")
			So(errors.Is(err, repository.ErrWinnerNotFound), ShouldBeTrue)
		})
	})
}

func TestPityFlow(t *testing.T) {
	Convey("Given a settled cycle with a winner and losers", t, func() {
		store := openStore(t)
		ctx := context.Background()
		now := time.Date(2026, 8, 25, 18, 0, 0, 0, time.UTC)
		const (
			settled = "2026-08-25-18:00"
			current = "2026-08-26-18:00"
		)

		mustPick(t, store, settled, "winner-fan", "creator-a", now.Add(-5*time.Hour))
		mustPick(t, store, settled, "loser-1", "creator-b", now.Add(-5*time.Hour))
		mustPick(t, store, settled, "loser-2", "creator-c", now.Add(-5*time.Hour))

		So(store.CreateSession(ctx, newSession("s1", "winner-fan", now.Add(-4*time.Hour))), ShouldBeNil)
		p := commitParams("s1", "winner-fan", now.Add(-4*time.Hour))
		p.CycleID = settled
		_, err := store.CommitResult(ctx, p)
		So(err, ShouldBeNil)

		w, _, err := store.SettleCycle(ctx, settled, now.Add(-24*time.Hour), now, now, false)
		So(err, ShouldBeNil)
		So(w.WinnerID, ShouldEqual, "creator-a")

		Convey("When issuing pity eligibility", func() {
			n, err := store.IssuePityEligibility(ctx, settled, w.WinnerID)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)

			Convey("Then only non-winning supporters are eligible", func() {
				el, err := store.GetPityEligibility(ctx, settled, "loser-1")
				So(err, ShouldBeNil)
				So(el.Eligible, ShouldBeTrue)
				So(el.ClickedWinnerLink, ShouldBeFalse)
				So(el.WinnerID, ShouldEqual, "creator-a")
				So(el.TheirCreatorID, ShouldEqual, "creator-b")

				_, err = store.GetPityEligibility(ctx, settled, "winner-fan")
				So(errors.Is(err, repository.ErrEligibilityNotFound), ShouldBeTrue)
			})

			Convey("Then re-running the fan-out inserts nothing new", func() {
				n, err := store.IssuePityEligibility(ctx, settled, w.WinnerID)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 0)
			})

			Convey("When an eligible loser redeems into the new cycle", func() {
				mustPick(t, store, current, "loser-1", "creator-b", now.Add(time.Hour))

				receipt, err := store.RedeemPity(ctx, settled, current, "loser-1", now.Add(2*time.Hour))
				So(err, ShouldBeNil)
				So(receipt.Applied, ShouldBeTrue)
				So(receipt.CreatorID, ShouldEqual, "creator-b")
				So(receipt.Points, ShouldEqual, 1)

				Convey("Then the bonus landed on the current cycle's ledger", func() {
					entries, _ := store.TopEntries(ctx, current, 10)
					So(entries, ShouldHaveLength, 1)
					So(entries[0].CreatorID, ShouldEqual, "creator-b")
					So(entries[0].TotalPoints, ShouldEqual, 1)

					pick, _ := store.GetPick(ctx, current, "loser-1")
					So(pick.PointsEarned, ShouldEqual, 1)
				})

				Convey("Then redeeming again is a no-op, not an error", func() {
					again, err := store.RedeemPity(ctx, settled, current, "loser-1", now.Add(3*time.Hour))
					So(err, ShouldBeNil)
					So(again.Applied, ShouldBeFalse)

					entries, _ := store.TopEntries(ctx, current, 10)
					So(entries[0].TotalPoints, ShouldEqual, 1)
				})
			})

			Convey("When redeeming without a pick in the current cycle", func() {
				receipt, err := store.RedeemPity(ctx, settled, current, "loser-2", now.Add(time.Hour))
				So(err, ShouldBeNil)
				So(receipt.Applied, ShouldBeFalse)

				Convey("Then the eligibility is not spent", func() {
					el, _ := store.GetPityEligibility(ctx, settled, "loser-2")
					So(el.ClickedWinnerLink, ShouldBeFalse)
				})
			})

			Convey("When a user with no eligibility tries to redeem", func() {
				mustPick(t, store, current, "winner-fan", "creator-a", now.Add(time.Hour))
				receipt, err := store.RedeemPity(ctx, settled, current, "winner-fan", now.Add(time.Hour))
				So(err, ShouldBeNil)
				So(receipt.Applied, ShouldBeFalse)
			})
		})
	})
}

func TestCreators(t *testing.T) {
	Convey("Given an open store", t, func() {
		store := openStore(t)
		ctx := context.Background()

		Convey("When upserting and reading a creator", func() {
			So(store.UpsertCreator(ctx, model.Creator{ID: "c1", Name: "Nova"}), ShouldBeNil)

			c, err := store.GetCreator(ctx, "c1")
			So(err, ShouldBeNil)
			So(c.Name, ShouldEqual, "Nova")

			Convey("Then upserting again updates metadata without clearing clicks", func() {
				_, err := store.IncrementReferralClicks(ctx, "c1")
				So(err, ShouldBeNil)
				So(store.UpsertCreator(ctx, model.Creator{ID: "c1", Name: "Nova Prime"}), ShouldBeNil)

				c, _ := store.GetCreator(ctx, "c1")
				So(c.Name, ShouldEqual, "Nova Prime")
				So(c.ReferralClicks, ShouldEqual, 1)
			})
		})

		Convey("When incrementing clicks for a missing creator", func() {
			_, err := store.IncrementReferralClicks(ctx, "ghost")
			So(errors.Is(err, repository.ErrCreatorNotFound), ShouldBeTrue)
		})

		Convey("When reading stats for an unseen user", func() {
			stats, err := store.UserStats(ctx, "newcomer")
			So(err, ShouldBeNil)
			So(stats.GamesPlayed, ShouldEqual, 0)
		})
	})
}
