package main

import "testing"

// Every subcommand must be able to override the embedded site profiles.
func TestSiteStylesFlagReachesAllCommands(t *testing.T) {
	for _, cmd := range rootCmd.Commands() {
		if cmd.InheritedFlags().Lookup("site-styles") == nil {
			t.Errorf("%s: --site-styles flag not inherited", cmd.Name())
		}
	}
}
