package simulate

import (
	"math/rand/v2"
	"testing"

	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		cfg := Config{Players: 7, Rounds: 5, Prefix: "gen", Logger: logger.Nop()}
		plan := Generate(cfg, rand.New(rand.NewPCG(1, 2)))

		Convey("Then every player should join first", func() {
			So(plan.Players, ShouldHaveLength, 7)
			So(plan.Players[0], ShouldEqual, "gen-001")
			So(plan.Joins, ShouldHaveLength, 7)
			for _, e := range plan.Joins {
				So(e.Kind, ShouldEqual, model.KindJoin)
				So(e.Player, ShouldNotBeNil)
			}
		})

		Convey("Then fights within a round should never share a player", func() {
			So(plan.Rounds, ShouldHaveLength, 5)
			for _, round := range plan.Rounds {
				So(round, ShouldHaveLength, 3)
				seen := map[string]bool{}
				for _, f := range round {
					So(seen[f.Winner], ShouldBeFalse)
					So(seen[f.Loser], ShouldBeFalse)
					So(f.Winner, ShouldNotEqual, f.Loser)
					seen[f.Winner], seen[f.Loser] = true, true
				}
			}
		})

		Convey("Then every fight should end with the winner's hit and the loser's death", func() {
			for _, round := range plan.Rounds {
				for _, f := range round {
					n := len(f.Events)
					So(n, ShouldBeGreaterThanOrEqualTo, 2)
					hit, death := f.Events[n-2], f.Events[n-1]
					So(hit.Kind, ShouldEqual, model.KindDamage)
					So(hit.Victim, ShouldEqual, f.Loser)
					So(hit.Attacker, ShouldEqual, f.Winner)
					So(death.Kind, ShouldEqual, model.KindDeath)
					So(death.Victim, ShouldEqual, f.Loser)
				}
			}
		})

		Convey("Then every generated event should be valid and unique", func() {
			ids := map[string]bool{}
			for _, e := range plan.Events() {
				So(e.Validate(), ShouldBeNil)
				So(e.TS.IsZero(), ShouldBeFalse)
				So(ids[e.EventID], ShouldBeFalse)
				ids[e.EventID] = true
			}
		})

		Convey("Then every fight should credit exactly one kill", func() {
			So(plan.Fights(), ShouldEqual, 15)
			So(plan.Kills, ShouldEqual, 15)
			total := 0
			for _, name := range plan.Players {
				exp := plan.Expected[name]
				So(exp.Killstreak, ShouldBeLessThanOrEqualTo, exp.Kills)
				total += exp.Kills
			}
			So(total, ShouldEqual, 15)
		})

		Convey("Then the last loser should have no streak", func() {
			last := plan.Rounds[len(plan.Rounds)-1]
			for _, f := range last {
				So(plan.Expected[f.Loser].Killstreak, ShouldEqual, 0)
				So(plan.Expected[f.Winner].Killstreak, ShouldBeGreaterThan, 0)
			}
		})
	})
}

func TestGenerate_SameSeed(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		cfg := Config{Players: 6, Rounds: 4, Prefix: "seed", Logger: logger.Nop()}
		a := Generate(cfg, rand.New(rand.NewPCG(9, 9)))
		b := Generate(cfg, rand.New(rand.NewPCG(9, 9)))

		Convey("Then they should produce the same outcomes", func() {
			So(a.Expected, ShouldResemble, b.Expected)
			So(a.Fights(), ShouldEqual, b.Fights())
		})
	})
}
