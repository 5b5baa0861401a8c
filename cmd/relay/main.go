package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sudotouchwoman/tablet-relay/pkg/command"
	"github.com/sudotouchwoman/tablet-relay/pkg/config"
	"github.com/sudotouchwoman/tablet-relay/pkg/connection"
	"github.com/sudotouchwoman/tablet-relay/pkg/downstream"
	"github.com/sudotouchwoman/tablet-relay/pkg/server"
)

var configFlag string

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	rootCmd := &cobra.Command{
		Use:   "relay",
		Short: "Tablet relay for the robot, the tail servo and face triggers",
	}
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	rootCmd.AddCommand(
		serveCmd(),
		sendCmd(),
		probeSerialCmd(),
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type senders struct {
	robot *downstream.Robot
	servo server.ServoSender
	links *connection.ConnectionManager
}

func (s senders) Close() {
	if s.links != nil {
		s.links.CloseAll()
	}
}

func buildSenders(ctx context.Context, cfg *config.Config) senders {
	timeout := cfg.Timeout.Duration
	s := senders{
		robot: downstream.NewRobot(cfg.RobotURL(), cfg.AuthUsername, cfg.AuthPassword, timeout),
	}
	if cfg.ServoTransport == config.TransportSerial {
		s.links = connection.NewManager(ctx, connection.SerialProvider(cfg.SerialBaud))
		s.servo = downstream.NewSerialServo(s.links, cfg.SerialPort, timeout)
	} else {
		s.servo = downstream.NewServo(cfg.ServoURL(), timeout)
	}
	return s
}

func serveCmd() *cobra.Command {
	var port int
	var staticDir string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("static") {
				cfg.StaticDir = staticDir
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := buildSenders(ctx, cfg)
			defer s.Close()

			rs, err := server.New(ctx, server.Options{
				Robot:     s.robot,
				Servo:     s.servo,
				RobotHost: cfg.RobotHost,
				ServoHost: cfg.ServoHost,
				StaticDir: cfg.StaticDir,
			})
			if err != nil {
				return err
			}
			log.Printf("Robot: %s", s.robot.Base())
			log.Printf("Arduino: %s", s.servo.Base())
			if cfg.StaticDir != "" {
				log.Printf("Serving from: %s", cfg.StaticDir)
			}
			err = rs.ListenAndServe(ctx, cfg.Addr())
			log.Println("Relay stopped")
			return err
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (overrides config)")
	cmd.Flags().StringVar(&staticDir, "static", "", "Directory with the browser bundle")
	return cmd
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "send COMMAND",
		Short:     "Dispatch a single command to the robot or the servo",
		Args:      cobra.ExactArgs(1),
		ValidArgs: command.Commands(),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFlag)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			s := buildSenders(ctx, cfg)
			defer s.Close()

			d := &server.Dispatcher{Robot: s.robot, Servo: s.servo}
			kind, err := d.Dispatch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("%s %s: %w", kind, args[0], err)
			}
			fmt.Printf("%s: %s sent\n", kind, args[0])
			return nil
		},
	}
}

func probeSerialCmd() *cobra.Command {
	com, baudrate, timeout := "/dev/ttyACM0", 9600, 30
	cmd := &cobra.Command{
		Use:   "probe-serial",
		Short: "Print the lines a serial device writes for a while",
		RunE: func(cmd *cobra.Command, args []string) error {
			if timeout <= 0 {
				return fmt.Errorf("timeout should be positive")
			}
			if baudrate <= 0 {
				return fmt.Errorf("baudrate should be positive")
			}
			log.Printf("Starts probing %s on baudrate %d for %d seconds", com, baudrate, timeout)

			manager := connection.NewManager(context.Background(), connection.SerialProvider(baudrate))
			link, err := manager.Open(com)
			if err != nil {
				return err
			}
			time.AfterFunc(time.Duration(timeout)*time.Second, func() {
				log.Println("Closing serial port stream")
				if err := manager.Close(com); err != nil {
					log.Println("Error during scanning:", err)
				}
			})
			for data := range link.Data() {
				log.Println(string(data))
			}
			log.Println("Finished probing")
			return nil
		},
	}
	cmd.Flags().StringVar(&com, "port", com, "Serial port name")
	cmd.Flags().IntVarP(&baudrate, "baud", "b", baudrate, "Serial port baudrate")
	cmd.Flags().IntVar(&timeout, "timeout", timeout, "Listening timeout (seconds)")
	return cmd
}
