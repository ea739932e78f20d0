package main

import (
	"strings"

	"github.com/spf13/cobra"

	"namefinder/internal/services"
)

func (c *cli) nameCmd() *cobra.Command {
	var req services.ProfileRequest
	cmd := &cobra.Command{
		Use:   "name NAME",
		Short: "Show the popularity profile of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			res, err := c.service.Profile(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	yearFlags(cmd, &req.YearRange)
	return cmd
}

func (c *cli) searchCmd() *cobra.Command {
	var (
		req                  services.SearchRequest
		genderMin, genderMax float64
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search names by pattern, popularity, gender and peak",
		Example: `  namefinder search --start a --end n --length-max 5
  namefinder search --pattern '^[^aeiou]+y$' --year 1990 --top 10
  namefinder search --gender-min 0.4 --gender-max 0.6 --number-min 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("gender-min") {
				req.GenderMin = &genderMin
			}
			if cmd.Flags().Changed("gender-max") {
				req.GenderMax = &genderMax
			}
			req.SortSex = strings.ToLower(req.SortSex)
			res, err := c.service.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	f := cmd.Flags()
	yearFlags(cmd, &req.YearRange)
	f.StringVar(&req.Pattern, "pattern", "", "regular expression the name must match (case-insensitive)")
	f.StringSliceVar(&req.Start, "start", nil, "name starts with any of these")
	f.StringSliceVar(&req.End, "end", nil, "name ends with any of these")
	f.StringSliceVar(&req.Contains, "contains", nil, "name contains all of these")
	f.StringSliceVar(&req.ContainsAny, "contains-any", nil, "name contains any of these")
	f.StringSliceVar(&req.Order, "order", nil, "name contains these in order")
	f.StringSliceVar(&req.NotStart, "not-start", nil, "name starts with none of these")
	f.StringSliceVar(&req.NotEnd, "not-end", nil, "name ends with none of these")
	f.StringSliceVar(&req.NotContains, "not-contains", nil, "name contains none of these")
	f.IntVar(&req.LengthMin, "length-min", 0, "minimum name length")
	f.IntVar(&req.LengthMax, "length-max", 0, "maximum name length")
	f.IntVar(&req.NumberMin, "number-min", 0, "minimum births")
	f.IntVar(&req.NumberMax, "number-max", 0, "maximum births")
	f.Float64Var(&genderMin, "gender-min", 0, "minimum male share, 0 to 1")
	f.Float64Var(&genderMax, "gender-max", 1, "maximum male share, 0 to 1")
	f.IntVar(&req.PeakAfter, "peak-after", 0, "name peaked in or after this year")
	f.IntVar(&req.PeakBefore, "peak-before", 0, "name peaked in or before this year")
	f.IntVar(&req.PeakRankMax, "peak-rank-max", 0, "best rank at the peak is at most this")
	f.IntVar(&req.Top, "top", 0, "number of names returned, negative for all")
	f.StringVar(&req.SortSex, "sort-sex", "", "sort by the births of one sex (f or m)")
	return cmd
}

func (c *cli) peaksCmd() *cobra.Command {
	var req services.PeaksRequest
	cmd := &cobra.Command{
		Use:   "peaks",
		Short: "List the years names peaked, or the raw yearly counts",
		Example: `  namefinder peaks --after 1980 --rank-max 10
  namefinder peaks --raw --sex f --year 1990 --top 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.service.Peaks(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}

	f := cmd.Flags()
	yearFlags(cmd, &req.YearRange)
	f.StringVar(&req.Sex, "sex", "", "f, m or combined (peaks default to combined)")
	f.IntVar(&req.RankMin, "rank-min", 0, "minimum rank")
	f.IntVar(&req.RankMax, "rank-max", 0, "maximum rank")
	f.BoolVar(&req.Raw, "raw", false, "list the raw yearly counts instead of the peaks")
	f.IntVar(&req.Top, "top", 0, "number of rows returned, negative for all")
	return cmd
}

func (c *cli) genderCmd() *cobra.Command {
	var (
		req services.GenderRequest
		raw bool
	)
	cmd := &cobra.Command{
		Use:   "gender NAME",
		Short: "Predict the sex of a name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name = args[0]
			living := !raw
			req.Living = &living
			res, err := c.service.PredictGender(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	yearFlags(cmd, &req.YearRange)
	cmd.Flags().BoolVar(&raw, "raw", false, "count all births instead of the people still living")
	return cmd
}

func (c *cli) ageCmd() *cobra.Command {
	var req services.AgeRequest
	cmd := &cobra.Command{
		Use:   "age NAME SEX",
		Short: "Estimate the birth-year band of a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Name, req.Sex = args[0], args[1]
			res, err := c.service.PredictAge(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().Float64Var(&req.MidPercentile, "mid-percentile", 0, "share of living holders inside the band (default 0.68)")
	return cmd
}
