package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsmith/internal/config"
)

func runInit(configPath string, force bool) error {
	slog.Info("Initializing project", "config", configPath, "force", force)

	if err := config.Init(configPath, force); err != nil {
		return err
	}

	for _, f := range scaffoldFiles() {
		created, err := writeScaffold(f, force)
		if err != nil {
			return err
		}
		if created {
			slog.Info("Created file", "path", f.path)
		} else {
			slog.Info("Kept existing file", "path", f.path)
		}
	}

	fmt.Println("Project scaffolded; run \"docsmith build\" to render it.")
	return nil
}

type scaffoldFile struct {
	path    string
	content string
}

// scaffoldFiles returns the example project matching the generated
// configuration: one documented module, a content declaration and a
// usage page.
func scaffoldFiles() []scaffoldFile {
	return []scaffoldFile{
		{path: filepath.Join("src", "lumache.py"), content: exampleModule},
		{path: filepath.Join("docs", "index.txt"), content: exampleIndex},
		{path: filepath.Join("docs", "usage.md"), content: exampleUsage},
	}
}

func writeScaffold(f scaffoldFile, force bool) (bool, error) {
	if _, err := os.Stat(f.path); err == nil && !force {
		return false, nil
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return false, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", f.path, err)
	}
	return true, nil
}

const exampleModule = `"""Lumache - Python library for cooks and food lovers.

Validates book metadata before it enters your recipe catalogue.
"""

__version__ = "0.1.0"


class InvalidDigitError(Exception):
    """Raised in strict mode when a code contains an unexpected character."""


def _clean(code: str, strip_separators: bool) -> str:
    if strip_separators:
        return code.replace("-", "").replace(" ", "")
    return code


def valid_isbn10(code: str, strip_separators: bool = True, allow_x: bool = True, strict: bool = False) -> bool:
    """Check whether a string is a valid ISBN-10 code.

    Parameters
    ----------
    code : str
        The candidate code to validate.
    strip_separators : bool
        Remove dashes and spaces before validating.
    allow_x : bool
        Accept a trailing X standing for the value ten.
    strict : bool
        Raise InvalidDigitError instead of returning False when the code
        contains unexpected characters.

    Returns
    -------
    bool
        True when the positionally weighted checksum is divisible by eleven.
    """
    code = _clean(code, strip_separators)
    if len(code) != 10:
        return False
    total = 0
    for position, char in enumerate(code):
        if char.isdigit():
            value = int(char)
        elif allow_x and char == "X" and position == 9:
            value = 10
        elif strict:
            raise InvalidDigitError(f"unexpected character {char!r}")
        else:
            return False
        total += value * (10 - position)
    return total % 11 == 0


def valid_isbn13(code: str, strip_separators: bool = True, require_prefix: bool = True, strict: bool = False) -> bool:
    """Check whether a string is a valid ISBN-13 code.

    Args:
        code (str): The candidate code to validate.
        strip_separators (bool): Remove dashes and spaces before validating.
        require_prefix (bool): Accept only codes starting with 978 or 979.
        strict (bool): Raise InvalidDigitError instead of returning False
            when the code contains unexpected characters.

    Returns:
        bool: True when the alternately weighted checksum is divisible by ten.
    """
    code = _clean(code, strip_separators)
    if len(code) != 13:
        return False
    if require_prefix and not code.startswith(("978", "979")):
        return False
    total = 0
    for position, char in enumerate(code):
        if not char.isdigit():
            if strict:
                raise InvalidDigitError(f"unexpected character {char!r}")
            return False
        if position % 2 == 0:
            total += int(char)
        else:
            total += 3 * int(char)
    return total % 10 == 0
`

const exampleIndex = `Lumache Documentation
=====================

Lumache is a Python library for cooks and food lovers that validates book
metadata before it enters your recipe catalogue. Head over to
[usage](usage.md) to get started.

.. toctree::
   :caption: Guides

   usage

.. toctree::
   :caption: Reference

   lumache
`

const exampleUsage = `---
title: Usage
---

# Usage

## Installation

To use Lumache, first install it using pip:

    pip install lumache

## Validating codes

To check whether a ten digit code is a valid ISBN-10, use
lumache.valid_isbn10:

    >>> import lumache
    >>> lumache.valid_isbn10("0-306-40615-2")
    True

Thirteen digit codes go through lumache.valid_isbn13, which accepts only
the 978 and 979 prefixes by default:

    >>> lumache.valid_isbn13("9780306406157")
    True

Both functions raise lumache.InvalidDigitError in strict mode when a code
contains characters that are neither digits nor separators. The full
signatures are listed in the [lumache](lumache.md) reference.
`
