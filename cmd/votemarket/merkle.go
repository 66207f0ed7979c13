// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/votemarket/merkle"
)

func readDistribution(path string) (*merkle.Distribution, error) {
	if path == "" {
		return nil, errors.Errorf("missing -%s", inputFlag.Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read distribution")
	}
	var d merkle.Distribution
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(err, "decode distribution")
	}
	return &d, nil
}

// buildTree builds d with a progress bar on stderr.
func buildTree(d *merkle.Distribution) (*merkle.Output, error) {
	bar := pb.New(len(d.Votes)).
		SetMaxWidth(90)
	bar.Output = os.Stderr
	bar.ShowSpeed = true
	bar.Start()
	defer func() { bar.NotPrint = true }()

	out, err := merkle.Build(d, func() { bar.Increment() })
	if err != nil {
		return nil, err
	}
	bar.Finish()
	return out, nil
}

func merkleBuildAction(ctx *cli.Context) error {
	d, err := readDistribution(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}
	out, err := buildTree(d)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path := ctx.String(outputFlag.Name); path != "" {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrap(err, "write tree")
		}
		fmt.Fprintf(os.Stderr, "epoch %d: %d claims, root %v\n", out.Epoch, len(out.Claims), out.Root)
		return nil
	}
	_, err = os.Stdout.Write(data)
	return err
}

func merkleVerifyAction(ctx *cli.Context) error {
	d, err := readDistribution(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}
	path := ctx.String(treeFlag.Name)
	if path == "" {
		return errors.Errorf("missing -%s", treeFlag.Name)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read tree")
	}
	var stored merkle.Output
	if err := json.Unmarshal(data, &stored); err != nil {
		return errors.Wrap(err, "decode tree")
	}

	rebuilt, err := buildTree(d)
	if err != nil {
		return err
	}
	if diff := jsonDiff(&stored, rebuilt); diff != "" {
		fmt.Print(diff)
		return errors.Errorf("tree mismatch, stored root %v, rebuilt root %v", stored.Root, rebuilt.Root)
	}
	fmt.Printf("tree ok, root %v\n", rebuilt.Root)
	return nil
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Stored",
		ToFile:   "Rebuilt",
		Context:  1,
	})
	return diff
}
