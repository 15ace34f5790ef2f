package avvio_test

import (
	"context"
	"errors"
	"fmt"
	"time"

	avvio "github.com/Swind/go-avvio"
)

// ExampleNew demonstrates nested plugins and an after handler with only one import.
func ExampleNew() {
	b, err := avvio.New(nil)
	if err != nil {
		panic(err)
	}
	defer b.Stop()

	_ = b.Use(func(s *avvio.Scope, _ any) error {
		fmt.Println("plugin A")
		s.Set("a", 1)
		return s.Use(func(s *avvio.Scope, _ any) error {
			a, _ := s.Get("a")
			fmt.Println("plugin B sees a =", a)
			return nil
		})
	})
	_ = b.After(func(err error) error {
		fmt.Println("after A and B")
		return err
	})

	if _, err := b.Wait(context.Background()); err != nil {
		panic(err)
	}
	fmt.Println("ready")

	// Output:
	// plugin A
	// plugin B sees a = 1
	// after A and B
	// ready
}

// ExampleBoot_OnClose demonstrates reverse-order teardown.
func ExampleBoot_OnClose() {
	b, _ := avvio.New(nil)
	defer b.Stop()

	_ = b.OnClose(func(*avvio.Scope) error {
		fmt.Println("close db")
		return nil
	})
	_ = b.OnClose(func(*avvio.Scope) error {
		fmt.Println("close http")
		return nil
	})

	done := make(chan struct{})
	_ = b.Close(func(err error) error {
		fmt.Println("closed, err =", err)
		close(done)
		return nil
	})
	<-done

	// Output:
	// close http
	// close db
	// closed, err = <nil>
}

// ExampleWithTimeout demonstrates a plugin that forgot to call done.
func ExampleWithTimeout() {
	b, _ := avvio.New(nil)
	defer b.Stop()

	_ = b.Use(func(*avvio.Scope, any, avvio.DoneFunc) {}, avvio.WithName("stuck"), avvio.WithTimeout(20*time.Millisecond))

	_, err := b.Wait(context.Background())
	var timeoutErr *avvio.TimeoutError
	if errors.As(err, &timeoutErr) {
		fmt.Println(timeoutErr.Name, errors.Is(err, avvio.ErrPluginExecTimeout))
	}

	// Output:
	// stuck true
}

// ExampleRun demonstrates booting a list of plugins in one call.
func ExampleRun() {
	b, err := avvio.Run(context.Background(),
		avvio.SyncPlugin(func(*avvio.Scope, any) error {
			fmt.Println("config")
			return nil
		}),
		func(s *avvio.Scope, _ any) *avvio.Future[struct{}] {
			return avvio.Async(func() error {
				fmt.Println("database")
				return nil
			})
		},
	)
	if err != nil {
		panic(err)
	}
	defer b.Stop()
	fmt.Println("loaded:", b.Stats().Loaded)

	// Output:
	// config
	// database
	// loaded: 2
}
