package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) purgeCart(owner string) error {
	if err := cli.carts.Purge(context.Background(), owner); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "purged %s\n", cli.carts.Key(owner))
	return nil
}
