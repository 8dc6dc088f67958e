package placeholder_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/papi/internal/domain/placeholder"
	"github.com/okian/papi/internal/domain/player"
	. "github.com/smartystreets/goconvey/convey"
)

func constant(v string) placeholder.Processor {
	return func(_ *player.Player, _ string) (string, error) { return v, nil }
}

func TestRegistry_Register(t *testing.T) {
	Convey("Given an empty registry", t, func() {
		r := placeholder.NewRegistry()

		Convey("When registering a new identifier", func() {
			ok := r.Register("papi", "greeting", constant("hi"))

			Convey("Then it should be registered under its own name", func() {
				So(ok, ShouldBeTrue)
				So(r.IsRegistered("greeting"), ShouldBeTrue)
				So(r.Identifiers(), ShouldResemble, []string{"greeting"})
				So(r.Len(), ShouldEqual, 1)
			})

			Convey("And another plugin registers the same identifier", func() {
				ok := r.Register("shop", "greeting", constant("welcome"))

				Convey("Then it should fall back to the plugin namespace", func() {
					So(ok, ShouldBeTrue)
					So(r.IsRegistered("shop:greeting"), ShouldBeTrue)
					So(r.Identifiers(), ShouldResemble, []string{"greeting", "shop:greeting"})
				})

				Convey("And the same plugin tries again", func() {
					ok := r.Register("shop", "greeting", constant("again"))

					Convey("Then it should be refused", func() {
						So(ok, ShouldBeFalse)
						So(r.Len(), ShouldEqual, 2)
					})
				})
			})
		})

		Convey("When registering unusable placeholders", func() {
			Convey("Then empty identifiers, braces, pipes and nil processors are refused", func() {
				So(r.Register("papi", "", constant("x")), ShouldBeFalse)
				So(r.Register("papi", "a{b", constant("x")), ShouldBeFalse)
				So(r.Register("papi", "a|b", constant("x")), ShouldBeFalse)
				So(r.Register("papi", "nil", nil), ShouldBeFalse)
				So(r.Len(), ShouldEqual, 0)
			})
		})

		Convey("When registering with RegisterAs", func() {
			first, ok1 := r.RegisterAs("papi", "motd", constant("1"))
			second, ok2 := r.RegisterAs("shop", "motd", constant("2"))
			_, ok3 := r.RegisterAs("shop", "motd", constant("3"))

			Convey("Then it should report the identifier actually used", func() {
				So(ok1, ShouldBeTrue)
				So(first, ShouldEqual, "motd")
				So(ok2, ShouldBeTrue)
				So(second, ShouldEqual, "shop:motd")
				So(ok3, ShouldBeFalse)
			})

			Convey("And unregistering a single identifier", func() {
				Convey("Then only its owner may remove it", func() {
					So(r.Unregister("shop", "motd"), ShouldBeFalse)
					So(r.Unregister("shop", "shop:motd"), ShouldBeTrue)
					So(r.Unregister("shop", "shop:motd"), ShouldBeFalse)
					So(r.Identifiers(), ShouldResemble, []string{"motd"})
				})
			})
		})

		Convey("When a plugin is unloaded", func() {
			r.Register("papi", "a", constant("1"))
			r.Register("shop", "b", constant("2"))
			r.Register("shop", "a", constant("3"))
			removed := r.UnregisterOwner("shop")

			Convey("Then only its placeholders should be gone", func() {
				So(removed, ShouldEqual, 2)
				So(r.Identifiers(), ShouldResemble, []string{"a"})
				So(r.IsRegistered("shop:a"), ShouldBeFalse)
			})
		})
	})
}

func TestRegistry_Pattern(t *testing.T) {
	Convey("Given a registry", t, func() {
		r := placeholder.NewRegistry()

		Convey("Then the pattern should be the brace pattern", func() {
			So(r.Pattern(), ShouldEqual, `[{]([^{}]+)[}]`)
		})

		Convey("Then placeholder detection should not depend on registration", func() {
			So(r.ContainsPlaceholders("hello {anything}"), ShouldBeTrue)
			So(r.ContainsPlaceholders("{a|b c}"), ShouldBeTrue)
			So(r.ContainsPlaceholders("no tokens {}"), ShouldBeFalse)
			So(r.ContainsPlaceholders("plain"), ShouldBeFalse)
		})
	})
}

func TestRegistry_SetPlaceholders(t *testing.T) {
	Convey("Given a registry with a few processors", t, func() {
		ctx := context.Background()
		r := placeholder.NewRegistry()
		r.Register("papi", "name", func(p *player.Player, _ string) (string, error) {
			if p == nil {
				return "", placeholder.ErrNoPlayer
			}
			return p.Name, nil
		})
		r.Register("papi", "echo", func(_ *player.Player, params string) (string, error) {
			return "[" + params + "]", nil
		})
		r.Register("papi", "boom", func(_ *player.Player, _ string) (string, error) {
			panic("processor bug")
		})
		r.Register("papi", "fail", func(_ *player.Player, _ string) (string, error) {
			return "", errors.New("nope")
		})
		steve := &player.Player{Name: "Steve"}

		Convey("When expanding registered tokens", func() {
			out := r.SetPlaceholders(ctx, steve, "Hi {name}, {echo|a|b}!")

			Convey("Then they should be replaced, splitting params on the first pipe", func() {
				So(out, ShouldEqual, "Hi Steve, [a|b]!")
			})
		})

		Convey("When a token is unknown", func() {
			out := r.SetPlaceholders(ctx, steve, "{name} has {coins} coins")

			Convey("Then it should be left as written", func() {
				So(out, ShouldEqual, "Steve has {coins} coins")
			})
		})

		Convey("When parsing without a player", func() {
			out := r.SetPlaceholders(ctx, nil, "{name}: {echo|x}")

			Convey("Then player tokens stay and others expand", func() {
				So(out, ShouldEqual, "{name}: [x]")
			})
		})

		Convey("When a processor fails or panics", func() {
			out := r.SetPlaceholders(ctx, steve, "{fail} {boom} {name}")

			Convey("Then the failing tokens stay and the rest expand", func() {
				So(out, ShouldEqual, "{fail} {boom} Steve")
			})
		})

		Convey("When the text has nested or empty braces", func() {
			out := r.SetPlaceholders(ctx, steve, "{{name}} {} {echo}")

			Convey("Then only innermost non-empty tokens should match", func() {
				So(out, ShouldEqual, "{Steve} {} []")
			})
		})

		Convey("When the text has no braces", func() {
			So(r.SetPlaceholders(ctx, steve, "plain text"), ShouldEqual, "plain text")
		})
	})
}
