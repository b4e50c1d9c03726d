// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the ledger state: token balances and the storage
// slots of the builtin services.
// It follows the flow as below:
//
//	   [ revertable state ]
//	            |
//	     [ stacked map ] -> [ journal ] -> [ stage ] -> [ kv bulk ]
//	            |
//	       [ lru cache ]
//	            |
//	        [ kv store ]
//
// Every command runs on top of a checkpoint. A failed command reverts to the
// checkpoint, a successful one is staged and committed as one atomic bulk.
package state
