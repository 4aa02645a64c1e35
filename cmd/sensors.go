package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"ambioctl/internal/cli"
	"ambioctl/internal/platform"
	"ambioctl/internal/session"
)

func newSensorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "Manage environmental sensors",
	}

	cmd.AddCommand(newSensorsListCmd())
	cmd.AddCommand(newSensorsGetCmd())
	cmd.AddCommand(newSensorsCreateCmd())
	cmd.AddCommand(newSensorsUpdateCmd())
	cmd.AddCommand(newSensorsDeleteCmd())
	cmd.AddCommand(newSensorsAssignCmd())
	cmd.AddCommand(newSensorsThresholdsCmd())
	cmd.AddCommand(newSensorsReadingsCmd())
	return cmd
}

func newSensorsListCmd() *cobra.Command {
	var (
		companyID     string
		unassigned    bool
		limit, offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sensors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			page, err := rt.platform.ListSensors(cmd.Context(), platform.SensorFilters{
				CompanyID:  companyID,
				Unassigned: unassigned,
				Limit:      limit,
				Offset:     offset,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), page, func(w io.Writer) error {
				return cli.RenderSensorsTable(w, page.Sensors)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "filter by owning company id")
	cmd.Flags().BoolVar(&unassigned, "unassigned", false, "only sensors not assigned to a company")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of sensors to return")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of sensors to skip")
	return cmd
}

func newSensorsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one sensor with its thresholds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			sensor, err := rt.platform.GetSensor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), sensor, func(w io.Writer) error {
				if err := cli.RenderSensorsTable(w, []platform.Sensor{sensor}); err != nil {
					return err
				}
				if sensor.Thresholds != nil {
					return cli.RenderThresholdsTable(w, *sensor.Thresholds)
				}
				return nil
			})
		},
	}
}

func newSensorsCreateCmd() *cobra.Command {
	var serial, name, location string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new sensor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage sensors", func(c session.Capabilities) bool {
				return c.CanAssignSensors
			}); err != nil {
				return err
			}

			sensor, err := rt.platform.CreateSensor(cmd.Context(), platform.SensorInput{
				Serial:   serial,
				Name:     name,
				Location: location,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), sensor, func(w io.Writer) error {
				return cli.RenderSensorsTable(w, []platform.Sensor{sensor})
			})
		},
	}

	cmd.Flags().StringVar(&serial, "serial", "", "hardware serial number")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&location, "location", "", "physical location")
	cmd.MarkFlagRequired("serial")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newSensorsUpdateCmd() *cobra.Command {
	var name, location string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a sensor's name or location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage sensors", func(c session.Capabilities) bool {
				return c.CanAssignSensors
			}); err != nil {
				return err
			}

			sensor, err := rt.platform.UpdateSensor(cmd.Context(), args[0], platform.SensorInput{
				Name:     name,
				Location: location,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), sensor, func(w io.Writer) error {
				return cli.RenderSensorsTable(w, []platform.Sensor{sensor})
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&location, "location", "", "new physical location")
	return cmd
}

func newSensorsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sensor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "manage sensors", func(c session.Capabilities) bool {
				return c.CanAssignSensors
			}); err != nil {
				return err
			}

			if err := rt.platform.DeleteSensor(cmd.Context(), args[0]); err != nil {
				return err
			}
			cmd.Println("Sensor deleted.")
			return nil
		},
	}
}

func newSensorsAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <sensor-id> <company-id>",
		Short: "Assign a sensor to a company",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "assign sensors", func(c session.Capabilities) bool {
				return c.CanAssignSensors
			}); err != nil {
				return err
			}

			sensor, err := rt.platform.AssignSensor(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), sensor, func(w io.Writer) error {
				return cli.RenderSensorsTable(w, []platform.Sensor{sensor})
			})
		},
	}
}

func newSensorsThresholdsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thresholds",
		Short: "Show or change a sensor's alert thresholds",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <sensor-id>",
		Short: "Show a sensor's thresholds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			thresholds, err := rt.platform.SensorThresholds(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), thresholds, func(w io.Writer) error {
				return cli.RenderThresholdsTable(w, thresholds)
			})
		},
	})

	cmd.AddCommand(newSensorsThresholdsSetCmd())
	return cmd
}

func newSensorsThresholdsSetCmd() *cobra.Command {
	var tempMin, tempMax, humidityMin, humidityMax float64

	cmd := &cobra.Command{
		Use:   "set <sensor-id>",
		Short: "Set a sensor's thresholds",
		Long: `Sets the per-sensor alert limits. Omitted limits are cleared so the
system defaults apply to them again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var thresholds platform.Thresholds
			if cmd.Flags().Changed("temp-min") {
				thresholds.TemperatureMin = &tempMin
			}
			if cmd.Flags().Changed("temp-max") {
				thresholds.TemperatureMax = &tempMax
			}
			if cmd.Flags().Changed("humidity-min") {
				thresholds.HumidityMin = &humidityMin
			}
			if cmd.Flags().Changed("humidity-max") {
				thresholds.HumidityMax = &humidityMax
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireCapability(cmd.Context(), "configure thresholds", func(c session.Capabilities) bool {
				return c.CanConfigureThresholds
			}); err != nil {
				return err
			}

			updated, err := rt.platform.SetSensorThresholds(cmd.Context(), args[0], thresholds)
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), updated, func(w io.Writer) error {
				return cli.RenderThresholdsTable(w, updated)
			})
		},
	}

	cmd.Flags().Float64Var(&tempMin, "temp-min", 0, "minimum temperature in °C")
	cmd.Flags().Float64Var(&tempMax, "temp-max", 0, "maximum temperature in °C")
	cmd.Flags().Float64Var(&humidityMin, "humidity-min", 0, "minimum relative humidity in %")
	cmd.Flags().Float64Var(&humidityMax, "humidity-max", 0, "maximum relative humidity in %")
	return cmd
}

func newSensorsReadingsCmd() *cobra.Command {
	var (
		from, to string
		limit    int
		latest   bool
	)

	cmd := &cobra.Command{
		Use:   "readings <sensor-id>",
		Short: "Show a sensor's measurements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			startDate, err := parseDateFlag(from)
			if err != nil {
				return err
			}
			endDate, err := parseDateFlag(to)
			if err != nil {
				return err
			}

			rt, err := newRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, err := rt.requireUser(cmd.Context()); err != nil {
				return err
			}

			if latest {
				reading, err := rt.platform.LatestReading(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return cli.Render(cmd.OutOrStdout(), outputFormat(), reading, func(w io.Writer) error {
					return cli.RenderReadingsTable(w, []platform.Reading{reading})
				})
			}

			page, err := rt.platform.SensorReadings(cmd.Context(), args[0], platform.ReadingFilters{
				StartDate: startDate,
				EndDate:   endDate,
				Limit:     limit,
			})
			if err != nil {
				return err
			}
			return cli.Render(cmd.OutOrStdout(), outputFormat(), page, func(w io.Writer) error {
				return cli.RenderReadingsTable(w, page.Readings)
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "only readings recorded at or after this date")
	cmd.Flags().StringVar(&to, "to", "", "only readings recorded at or before this date")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of readings to return")
	cmd.Flags().BoolVar(&latest, "latest", false, "show only the most recent reading")
	return cmd
}
