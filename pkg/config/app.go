// SkyCart Core
// Copyright (c) 2026 The SkyCart Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of SkyCart Core.
//
// SkyCart Core is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SkyCart Core is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with SkyCart Core.  If not, see <http://www.gnu.org/licenses/>.

package config

const (
	AppName    = "skycart"
	AppVersion = "1.3.0"

	CfgFile       = "config.toml"
	LogFile       = "core.log"
	LedgerFile    = "version_ledger.json"
	HistoryDbFile = "history.db"
)
