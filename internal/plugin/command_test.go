package plugin_test

import (
	"context"
	"testing"

	"github.com/okian/papi/internal/plugin"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlugin_Command(t *testing.T) {
	Convey("Given a plugin with Steve online", t, func() {
		ctx := context.Background()
		p := plugin.New()
		apply(p, join("Steve"))

		Convey("When Steve parses text for himself", func() {
			s := &plugin.BufferSender{Player: "Steve"}
			ok := p.Command(ctx, s, []string{"parse", "me", "hi {player_name}"})

			Convey("Then the expansion should be sent back", func() {
				So(ok, ShouldBeTrue)
				So(s.Messages, ShouldResemble, []string{"hi Steve"})
				So(s.Errors, ShouldBeEmpty)
			})
		})

		Convey("When the console targets me", func() {
			s := &plugin.BufferSender{}
			ok := p.Command(ctx, s, []string{"parse", "me", "{player_name}"})

			Convey("Then it should be told it is not a player", func() {
				So(ok, ShouldBeTrue)
				So(s.Errors, ShouldResemble, []string{"You must be a player to use 'me' as a target!"})
			})
		})

		Convey("When the console parses for a named or null target", func() {
			s := &plugin.BufferSender{}
			p.Command(ctx, s, []string{"parse", "Steve", "{player_name}"})
			p.Command(ctx, s, []string{"parse", "--null", "{player_name}"})
			p.Command(ctx, s, []string{"parse", "Nobody", "{player_name}"})

			Convey("Then each target should resolve its own way", func() {
				So(s.Messages, ShouldResemble, []string{"Steve", "{player_name}"})
				So(s.Errors, ShouldResemble, []string{"Could not find player Nobody!"})
			})
		})

		Convey("When parse has the wrong number of arguments", func() {
			s := &plugin.BufferSender{}
			ok := p.Command(ctx, s, []string{"parse", "Steve"})

			Convey("Then the sender should get an error", func() {
				So(ok, ShouldBeFalse)
				So(s.Errors, ShouldResemble, []string{"Invalid number of arguments! Expected 3, got 2."})
			})
		})

		Convey("When listing placeholders", func() {
			s := &plugin.BufferSender{}
			ok := p.Command(ctx, s, []string{"list"})

			Convey("Then a header and one line per identifier should be sent", func() {
				So(ok, ShouldBeTrue)
				So(s.Messages[0], ShouldEqual, "Available placeholders:")
				So(len(s.Messages), ShouldEqual, len(p.List())+1)
				So(s.Messages[1], ShouldEqual, "- x")
			})
		})

		Convey("When the subcommand is missing or unknown", func() {
			s := &plugin.BufferSender{}
			So(p.Command(ctx, s, nil), ShouldBeFalse)
			So(p.Command(ctx, s, []string{"reload"}), ShouldBeFalse)
			So(len(s.Errors), ShouldEqual, 2)
		})
	})
}
